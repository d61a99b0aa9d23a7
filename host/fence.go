package host

import (
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/upload"
)

// Fence is the upload.Fence created by Device. Its completed value is advanced by Queue, or
// directly with Signal.
type Fence struct {
	device *Device

	mutex     sync.Mutex
	cond      *sync.Cond
	completed uint64
	released  atomic.Bool
}

var _ upload.Fence = &Fence{}
var _ upload.FenceWaiter = &Fence{}

func newFence(device *Device) *Fence {
	fence := &Fence{device: device}
	fence.cond = sync.NewCond(&fence.mutex)
	return fence
}

func (f *Fence) CompletedValue() uint64 {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.completed
}

// Signal advances the completed value to value. Values lower than the current completed value
// are ignored, since a fence's completed value never decreases.
func (f *Fence) Signal(value uint64) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if value > f.completed {
		f.completed = value
		f.cond.Broadcast()
	}
}

// WaitForValue blocks until the completed value is at least value
func (f *Fence) WaitForValue(value uint64) error {
	if f.released.Load() {
		return errors.New("attempted to wait on a fence that has been released")
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	for f.completed < value {
		f.cond.Wait()
	}

	return nil
}

func (f *Fence) Release() error {
	if !f.released.CompareAndSwap(false, true) {
		return errors.New("fence has already been released")
	}

	atomic.AddInt32(&f.device.fenceCount, -1)
	return nil
}
