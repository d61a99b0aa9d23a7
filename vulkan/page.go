package vulkan

import (
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/upload"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/core1_2"
)

// Page is a persistently-mapped buffer bound to its own host-visible memory
type Page struct {
	device  *Device
	buffer  core1_0.Buffer
	memory  core1_0.DeviceMemory
	data    []byte
	address upload.DeviceAddress

	label    atomic.Pointer[string]
	released atomic.Bool
}

var _ upload.PageMemory = &Page{}

func newPage(device *Device, buffer core1_0.Buffer, memory core1_0.DeviceMemory, size int) (*Page, error) {
	ptr, _, err := memory.Map(0, size, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to map page memory")
	}

	page := &Page{
		device: device,
		buffer: buffer,
		memory: memory,
		data:   unsafe.Slice((*byte)(ptr), size),
	}

	if device.extensionData.BufferDeviceAddress != nil {
		address, err := device.extensionData.BufferDeviceAddress.GetBufferDeviceAddress(core1_2.BufferDeviceAddressInfo{
			Buffer: buffer,
		})
		if err != nil {
			memory.Unmap()
			return nil, errors.Wrap(err, "failed to retrieve the page buffer's device address")
		}
		page.address = upload.DeviceAddress(address)
	}

	return page, nil
}

// Buffer returns the buffer backing this page. Suballocations are ranges of this buffer starting
// at upload.Allocation.Offset.
func (p *Page) Buffer() core1_0.Buffer {
	return p.buffer
}

func (p *Page) Memory() core1_0.DeviceMemory {
	return p.memory
}

func (p *Page) Bytes() []byte {
	return p.data
}

func (p *Page) DeviceAddress() upload.DeviceAddress {
	return p.address
}

// SetDebugLabel records the label for DebugLabel. Object naming through debug utils is left to
// the application, which can name Buffer() directly.
func (p *Page) SetDebugLabel(label string) {
	p.label.Store(&label)
}

func (p *Page) DebugLabel() string {
	label := p.label.Load()
	if label == nil {
		return ""
	}
	return *label
}

func (p *Page) Release() error {
	if !p.released.CompareAndSwap(false, true) {
		return errors.New("page was released twice")
	}

	p.data = nil
	p.memory.Unmap()
	p.buffer.Destroy(p.device.allocationCallbacks)
	p.memory.Free(p.device.allocationCallbacks)
	return nil
}
