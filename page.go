package upload

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/upload/memutils"
)

// PageHandle identifies a page within the allocator that created it. Handles stay valid for
// as long as the page exists. Once the page is destroyed its handle never resolves again, even
// if a later page takes over its storage.
type PageHandle int64

// NoPage is the PageHandle value that does not refer to any page
const NoPage PageHandle = -1

const (
	pageHandleSlotBits            = 32
	pageHandleSlotMask PageHandle = 1<<pageHandleSlotBits - 1
)

// pageSlot is a page's index in the allocator's page arena. Lists link pages by slot.
type pageSlot int32

const noSlot pageSlot = -1

type page struct {
	id         int
	// Incremented every time a page is created in this slot
	generation uint32

	memory        PageMemory
	data          []byte
	deviceAddress DeviceAddress
	fence         Fence

	size     int
	offset   int
	refCount int
	// The last value requested from the fence. 0 means no signal has ever been requested.
	pendingSignalValue uint64

	list pageListKind
	prev pageSlot
	next pageSlot
}

func (p *page) live() bool {
	return p.memory != nil
}

func (p *page) suballocate(size int, alignment uint) (int, error) {
	offset := memutils.AlignOffset(p.offset, alignment)
	if offset+size > p.size {
		return 0, errors.Wrapf(OutOfPageSpaceError,
			"an allocation of %d bytes at offset %d does not fit in a page of %d bytes", size, offset, p.size)
	}

	p.offset = offset + size
	return offset, nil
}

func (p *page) hasRoomFor(size int, alignment uint) bool {
	return memutils.AlignOffset(p.offset, alignment)+size <= p.size
}

func (p *page) clearMemory() {
	data := p.data[:p.size]
	for i := range data {
		data[i] = 0
	}
}
