package host

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/upload"
)

// Page is the upload.PageMemory created by Device
type Page struct {
	device   *Device
	data     []byte
	address  upload.DeviceAddress
	label    atomic.Value
	released atomic.Bool
}

var _ upload.PageMemory = &Page{}

func (p *Page) Bytes() []byte {
	return p.data
}

func (p *Page) DeviceAddress() upload.DeviceAddress {
	return p.address
}

func (p *Page) SetDebugLabel(label string) {
	p.label.Store(label)
}

func (p *Page) DebugLabel() string {
	label, _ := p.label.Load().(string)
	return label
}

// Released returns true once Release has been called
func (p *Page) Released() bool {
	return p.released.Load()
}

func (p *Page) Release() error {
	if !p.released.CompareAndSwap(false, true) {
		return errors.Newf("page at device address %#x has already been released", p.address)
	}

	p.device.removeAllocation(len(p.data))
	atomic.AddInt32(&p.device.pageCount, -1)
	return nil
}
