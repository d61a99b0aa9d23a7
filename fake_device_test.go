package upload

import (
	"github.com/cockroachdb/errors"
)

type fakePage struct {
	data     []byte
	address  DeviceAddress
	label    string
	released bool
}

func (p *fakePage) Bytes() []byte                { return p.data }
func (p *fakePage) DeviceAddress() DeviceAddress { return p.address }
func (p *fakePage) SetDebugLabel(label string)   { p.label = label }
func (p *fakePage) Release() error {
	if p.released {
		return errors.New("released twice")
	}
	p.released = true
	return nil
}

type fakeFence struct {
	completed uint64
	released  bool
}

func (f *fakeFence) CompletedValue() uint64 { return f.completed }
func (f *fakeFence) Release() error {
	f.released = true
	return nil
}

// fakeDevice hands out pages with ascending addresses and fences advanced by fakeQueue
type fakeDevice struct {
	nextAddress DeviceAddress
	pages       []*fakePage
	failPages   bool
}

func (d *fakeDevice) CreatePage(size int) (PageMemory, error) {
	if d.failPages {
		return nil, errors.Wrap(DeviceAllocationFailedError, "fake device is out of memory")
	}

	d.nextAddress += 0x100000
	page := &fakePage{data: make([]byte, size), address: d.nextAddress}
	d.pages = append(d.pages, page)
	return page, nil
}

func (d *fakeDevice) CreateFence() (Fence, error) {
	return &fakeFence{}, nil
}

type fakeSignal struct {
	fence *fakeFence
	value uint64
}

type fakeQueue struct {
	signals []fakeSignal
}

func (q *fakeQueue) RequestSignal(fence Fence, value uint64) {
	q.signals = append(q.signals, fakeSignal{fence: fence.(*fakeFence), value: value})
}

func (q *fakeQueue) completeAll() {
	for _, signal := range q.signals {
		signal.fence.completed = signal.value
	}
	q.signals = nil
}
