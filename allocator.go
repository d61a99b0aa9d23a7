package upload

import (
	"context"
	"fmt"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/upload/internal/utils"
	"github.com/vkngwrapper/arsenal/upload/memutils"
	"golang.org/x/exp/slog"
)

// Allocator hands out short-lived, aligned suballocations of CPU-writable, device-readable
// memory from fixed-size pages. Suballocations are never freed individually. Instead, each
// page counts the suballocations made from it, the consumer calls MarkDereferenced once the
// work that reads a suballocation has been recorded, and the allocator fences pages whose
// count has dropped to zero. Once a page's fence has been reached the page is reset and reused.
//
// Pages are always in exactly one of three lists:
//
//   - unused: empty pages ready to be handed out
//   - used: pages receiving suballocations, or whose suballocations have not all been dereferenced
//   - pending: pages whose fence has been signalled but not yet reached by the device
type Allocator struct {
	logger      *slog.Logger
	device      Device
	createFlags CreateFlags
	callbacks   memoryCallbacks
	mutex       utils.OptionalMutex

	increment  int
	debugLabel string

	pages      []page
	freeSlots  []pageSlot
	nextPageID int
	// Page creations and destructions waiting to be reported, and destroyed pages waiting to be
	// released, once the mutex is no longer held
	events []pageEvent

	unusedPages  pageList
	usedPages    pageList
	pendingPages pageList

	totalPageCount   int
	pendingPageCount int
	destroyed        bool
}

type validatorFunc func() error

func (f validatorFunc) Validate() error { return f() }

func (a *Allocator) debugValidate() {
	memutils.DebugValidate(validatorFunc(a.validate))
}

// PageSize returns the size in bytes of every page owned by this allocator
func (a *Allocator) PageSize() int { return a.increment }

// PageCount returns the number of pages currently owned by this allocator, across all lists
func (a *Allocator) PageCount() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.totalPageCount
}

// PendingPageCount returns the number of pages waiting on their fence
func (a *Allocator) PendingPageCount() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.pendingPageCount
}

// PageMemory returns the backing memory of a live page, so that backends can expose their
// native resources for an Allocation.Page
func (a *Allocator) PageMemory(handle PageHandle) (PageMemory, bool) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	p, ok := a.lookupPage(handle)
	if !ok {
		return nil, false
	}
	return p.memory, true
}

func (a *Allocator) DebugLabel() string {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.debugLabel
}

// Allocate carves size bytes, aligned to alignment, out of a page. An alignment of 0 requests
// no particular alignment. size must be positive and no larger than the page size; alignment
// must be 0 or a power of two no larger than the page size. InvalidRequestError is returned
// otherwise. OutOfMemoryError is returned if a new page was needed and could not be created.
//
// The page's reference count is incremented. The consumer must call MarkDereferenced with
// Allocation.Page once the device work that reads this memory has been recorded, or the
// page will never be reused.
func (a *Allocator) Allocate(size int, alignment uint) (Allocation, error) {
	a.logger.Debug("Allocator::Allocate")

	a.mutex.Lock()
	allocation, err := a.allocate(size, alignment)
	eventErr := a.unlockAndFlushEvents()
	if err != nil {
		return Allocation{}, errors.CombineErrors(err, eventErr)
	}

	return allocation, eventErr
}

func (a *Allocator) allocate(size int, alignment uint) (Allocation, error) {
	if a.destroyed {
		return Allocation{}, errors.New("attempted to allocate from an allocator that has been destroyed")
	}

	if size <= 0 {
		return Allocation{}, errors.Wrapf(InvalidRequestError, "cannot honor allocation request of size %d", size)
	}
	if size > a.increment {
		return Allocation{}, errors.Wrapf(InvalidRequestError, "size %d must be less or equal to the allocator's page size %d", size, a.increment)
	}
	if alignment > uint(a.increment) {
		return Allocation{}, errors.Wrapf(InvalidRequestError, "alignment %d must be less or equal to the allocator's page size %d", alignment, a.increment)
	}
	err := memutils.CheckPow2(alignment, "alignment")
	if err != nil {
		return Allocation{}, errors.Mark(err, InvalidRequestError)
	}

	slot, err := a.findPageForAlloc(size, alignment)
	if err != nil {
		return Allocation{}, err
	}

	p := a.page(slot)
	offset, err := p.suballocate(size, alignment)
	if err != nil {
		memutils.DebugAssert(err)
		return Allocation{}, errors.NewAssertionErrorWithWrappedErrf(err, "page %d was selected for an allocation it could not hold", p.id)
	}
	p.refCount++

	a.debugValidate()

	return Allocation{
		Page:          a.handleOf(slot),
		Offset:        offset,
		Size:          size,
		Data:          p.data[offset : offset+size : offset+size],
		DeviceAddress: p.deviceAddress + DeviceAddress(offset),
	}, nil
}

func (a *Allocator) findPageForAlloc(size int, alignment uint) (pageSlot, error) {
	// A partially-used page can never hold a whole page, don't bother looking
	if size == a.increment && (alignment == 0 || alignment == uint(a.increment)) {
		return a.getCleanPageForAlloc()
	}

	for slot := a.usedPages.head; slot != noSlot; slot = a.page(slot).next {
		if a.page(slot).hasRoomFor(size, alignment) {
			return slot, nil
		}
	}

	return a.getCleanPageForAlloc()
}

func (a *Allocator) getCleanPageForAlloc() (pageSlot, error) {
	slot := a.unusedPages.head
	if slot == noSlot {
		var err error
		slot, err = a.createPage()
		if err != nil {
			return noSlot, err
		}
	}

	a.unlinkPage(slot)
	a.linkPage(slot, &a.usedPages)

	p := a.page(slot)
	if p.offset != 0 {
		panic(fmt.Sprintf("page %d was taken from the unused list with a cursor at offset %d", p.id, p.offset))
	}

	return slot, nil
}

// createPage creates a new page and places it at the head of the unused list
func (a *Allocator) createPage() (pageSlot, error) {
	memory, err := a.device.CreatePage(a.increment)
	if err != nil {
		return noSlot, errors.Mark(errors.Wrapf(err, "failed to create a page of %d bytes", a.increment), OutOfMemoryError)
	}

	data := memory.Bytes()
	if len(data) < a.increment {
		return noSlot, errors.Mark(errors.CombineErrors(
			errors.Wrapf(DeviceAllocationFailedError, "device created a page of %d bytes when %d were requested", len(data), a.increment),
			memory.Release(),
		), OutOfMemoryError)
	}

	fence, err := a.device.CreateFence()
	if err != nil {
		return noSlot, errors.Mark(errors.CombineErrors(
			errors.Wrap(err, "failed to create a page fence"),
			memory.Release(),
		), OutOfMemoryError)
	}

	if a.debugLabel != "" {
		memory.SetDebugLabel(a.debugLabel)
	}

	var slot pageSlot
	if slotCount := len(a.freeSlots); slotCount > 0 {
		slot = a.freeSlots[slotCount-1]
		a.freeSlots = a.freeSlots[:slotCount-1]
	} else {
		slot = pageSlot(len(a.pages))
		a.pages = append(a.pages, page{})
	}

	a.pages[slot] = page{
		id:            a.nextPageID,
		generation:    a.pages[slot].generation + 1,
		memory:        memory,
		data:          data,
		deviceAddress: memory.DeviceAddress(),
		fence:         fence,
		size:          a.increment,
		prev:          noSlot,
		next:          noSlot,
	}
	a.nextPageID++
	a.totalPageCount++

	p := a.page(slot)
	p.clearMemory()
	a.linkPage(slot, &a.unusedPages)

	a.events = append(a.events, pageEvent{
		kind:   pageEventCreated,
		handle: a.handleOf(slot),
		id:     p.id,
		memory: memory,
		size:   a.increment,
	})
	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "created page",
		slog.Int("page", p.id),
		slog.Int("size", a.increment),
		slog.Int("totalPages", a.totalPageCount),
	)

	return slot, nil
}

// destroyPage frees a detached page's slot. Its memory and fence are released by
// unlockAndFlushEvents.
func (a *Allocator) destroyPage(slot pageSlot) {
	p := a.page(slot)
	if p.list != pageListNone {
		panic(fmt.Sprintf("attempted to destroy page %d while it is still in the %s list", p.id, p.list))
	}

	a.events = append(a.events, pageEvent{
		kind:   pageEventDestroyed,
		handle: a.handleOf(slot),
		id:     p.id,
		memory: p.memory,
		fence:  p.fence,
		size:   p.size,
	})
	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "destroyed page",
		slog.Int("page", p.id),
		slog.Int("size", p.size),
	)

	a.pages[slot] = page{generation: p.generation, prev: noSlot, next: noSlot}
	a.freeSlots = append(a.freeSlots, slot)
	a.totalPageCount--
}

func (a *Allocator) freePageList(list *pageList) {
	for !list.IsEmpty() {
		slot := list.head
		a.unlinkPage(slot)
		a.destroyPage(slot)
	}
}

// unlockAndFlushEvents unlocks the mutex, then fires the memory callbacks for pages created or
// destroyed while it was held and releases the memory and fences of destroyed pages. Callbacks
// are free to call back into the allocator.
func (a *Allocator) unlockAndFlushEvents() error {
	events := a.events
	a.events = nil
	a.mutex.Unlock()

	var err error
	for _, event := range events {
		switch event.kind {
		case pageEventCreated:
			a.callbacks.Allocate(event.handle, event.memory, event.size)
		case pageEventDestroyed:
			a.callbacks.Free(event.handle, event.memory, event.size)

			if memErr := event.memory.Release(); memErr != nil {
				err = errors.CombineErrors(err, errors.Wrapf(memErr, "failed to release the memory of page %d", event.id))
			}
			if fenceErr := event.fence.Release(); fenceErr != nil {
				err = errors.CombineErrors(err, errors.Wrapf(fenceErr, "failed to release the fence of page %d", event.id))
			}
		}
	}

	return err
}

// MarkDereferenced releases one reference to a page, taken by Allocate or AddReference. Call
// it once the device work that reads a suballocation has been recorded. Pages only become
// eligible for FenceCommittedPages once every reference has been released.
func (a *Allocator) MarkDereferenced(handle PageHandle) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	p, ok := a.lookupPage(handle)
	if !ok {
		return errors.Wrapf(InvalidPageError, "page handle %d does not refer to a live page", handle)
	}
	if p.refCount <= 0 {
		return errors.Wrapf(InvalidPageError, "page %d has no outstanding references to release", p.id)
	}

	p.refCount--
	return nil
}

// AddReference takes an additional reference to a page that is receiving suballocations, for
// consumers that share one suballocation between several pieces of device work.
func (a *Allocator) AddReference(handle PageHandle) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	p, ok := a.lookupPage(handle)
	if !ok {
		return errors.Wrapf(InvalidPageError, "page handle %d does not refer to a live page", handle)
	}
	if p.list != pageListUsed {
		return errors.Wrapf(InvalidPageError, "page %d is in the %s list and cannot take new references", p.id, p.list)
	}

	p.refCount++
	return nil
}

// FenceCommittedPages should be called after submitting work to queue. Every used page with no
// outstanding references has a signal requested on its fence and moves to the pending list.
// Pages with outstanding references stay in the used list.
func (a *Allocator) FenceCommittedPages(queue Queue) {
	a.logger.Debug("Allocator::FenceCommittedPages")

	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.usedPages.IsEmpty() {
		return
	}

	readyPages, unreadyPages := noSlot, noSlot
	readyCount, unreadyCount := 0, 0

	var nextPage pageSlot
	for slot := a.detachList(&a.usedPages); slot != noSlot; slot = nextPage {
		p := a.page(slot)
		nextPage = p.next
		p.prev = noSlot

		if p.refCount == 0 {
			p.pendingSignalValue++
			queue.RequestSignal(p.fence, p.pendingSignalValue)

			p.next = readyPages
			if readyPages != noSlot {
				a.page(readyPages).prev = slot
			}
			readyPages = slot
			readyCount++
		} else {
			p.next = unreadyPages
			if unreadyPages != noSlot {
				a.page(unreadyPages).prev = slot
			}
			unreadyPages = slot
			unreadyCount++
		}
	}

	a.linkPageChain(unreadyPages, unreadyCount, &a.usedPages)

	if readyCount > 0 {
		a.pendingPageCount += readyCount
		a.linkPageChain(readyPages, readyCount, &a.pendingPages)
	}

	a.debugValidate()
}

// RetirePendingPages should be called once a frame, after all device submissions. Every pending
// page whose fence has reached the requested value is reset and moved to the unused list.
// Pages whose fence has not been reached are left alone for a later call; this method never
// blocks. The number of retired pages is returned.
func (a *Allocator) RetirePendingPages() int {
	a.logger.Debug("Allocator::RetirePendingPages")

	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.retirePendingPages()
}

func (a *Allocator) retirePendingPages() int {
	retired := 0

	var nextPage pageSlot
	for slot := a.pendingPages.head; slot != noSlot; slot = nextPage {
		p := a.page(slot)
		nextPage = p.next

		if p.pendingSignalValue == 0 {
			panic(fmt.Sprintf("page %d is pending but no signal was ever requested on its fence", p.id))
		}

		if p.fence.CompletedValue() >= p.pendingSignalValue {
			a.releasePage(slot)
			retired++
		}
	}

	if retired > 0 {
		a.debugValidate()
	}

	return retired
}

func (a *Allocator) releasePage(slot pageSlot) {
	if a.pendingPageCount <= 0 {
		panic("attempted to release a pending page while the pending page count is zero")
	}
	a.pendingPageCount--

	a.unlinkPage(slot)
	a.linkPage(slot, &a.unusedPages)

	p := a.page(slot)
	p.offset = 0
	if a.createFlags&CreateSkipRetireClear == 0 {
		p.clearMemory()
	}
}

// Shrink destroys every page in the unused list. Used and pending pages are unaffected.
func (a *Allocator) Shrink() error {
	a.logger.Debug("Allocator::Shrink")

	a.mutex.Lock()
	a.freePageList(&a.unusedPages)
	a.debugValidate()

	return a.unlockAndFlushEvents()
}

// Destroy waits for every pending page's fence to be reached, then destroys every page the
// allocator owns. Pages that still have outstanding references are logged and destroyed
// anyway. The allocator cannot be used after Destroy returns successfully.
func (a *Allocator) Destroy() error {
	a.logger.Debug("Allocator::Destroy")

	a.mutex.Lock()
	if a.destroyed {
		a.mutex.Unlock()
		return errors.New("attempted to destroy an allocator that has already been destroyed")
	}

	for !a.pendingPages.IsEmpty() {
		if a.retirePendingPages() > 0 {
			continue
		}

		err := a.waitForPendingPage()
		if err != nil {
			a.mutex.Unlock()
			return errors.Wrap(err, "failed to wait for pending pages")
		}
	}

	a.logUnreleasedPages()

	a.freePageList(&a.unusedPages)
	a.freePageList(&a.usedPages)
	a.debugValidate()

	a.destroyed = true
	a.pages = nil
	a.freeSlots = nil

	return a.unlockAndFlushEvents()
}

func (a *Allocator) waitForPendingPage() error {
	p := a.page(a.pendingPages.head)

	waiter, canWait := p.fence.(FenceWaiter)
	if !canWait {
		runtime.Gosched()
		return nil
	}

	return waiter.WaitForValue(p.pendingSignalValue)
}

func (a *Allocator) logUnreleasedPages() {
	for slot := a.usedPages.head; slot != noSlot; slot = a.page(slot).next {
		p := a.page(slot)
		if p.refCount == 0 {
			continue
		}

		a.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] page destroyed with outstanding references",
			slog.Int("page", p.id),
			slog.Int("refCount", p.refCount),
			slog.Int("offset", p.offset),
			slog.String("label", a.debugLabel),
		)
	}
}

// SetDebugLabel applies label to every page the allocator owns and every page it creates later
func (a *Allocator) SetDebugLabel(label string) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.debugLabel = label

	a.setPageListDebugLabel(&a.pendingPages)
	a.setPageListDebugLabel(&a.usedPages)
	a.setPageListDebugLabel(&a.unusedPages)
}

func (a *Allocator) setPageListDebugLabel(list *pageList) {
	for slot := list.head; slot != noSlot; slot = a.page(slot).next {
		a.page(slot).memory.SetDebugLabel(a.debugLabel)
	}
}
