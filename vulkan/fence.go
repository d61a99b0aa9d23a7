package vulkan

import (
	"math"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/upload"
	"github.com/vkngwrapper/core/v2/core1_0"
	"golang.org/x/exp/slog"
)

type pendingSignal struct {
	fence core1_0.Fence
	value uint64
}

// Fence is a monotonically-increasing counter built from binary Vulkan fences. Every
// RequestSignal made through a Queue submits one binary fence, and CompletedValue advances past
// each value whose binary fence has become signalled.
type Fence struct {
	device *Device

	mutex     sync.Mutex
	completed uint64
	inFlight  []pendingSignal
	spare     []core1_0.Fence
	released  bool
}

var _ upload.Fence = &Fence{}
var _ upload.FenceWaiter = &Fence{}

func newFence(device *Device) *Fence {
	return &Fence{device: device}
}

func (f *Fence) acquireVulkanFence() (core1_0.Fence, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.released {
		return nil, errors.New("fence has been released")
	}

	if len(f.spare) > 0 {
		fence := f.spare[len(f.spare)-1]
		f.spare = f.spare[:len(f.spare)-1]
		return fence, nil
	}

	fence, _, err := f.device.createVulkanFence()
	return fence, err
}

// recycleVulkanFence returns an unsubmitted fence to the spare pool
func (f *Fence) recycleVulkanFence(fence core1_0.Fence) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.released {
		fence.Destroy(f.device.allocationCallbacks)
		return
	}
	f.spare = append(f.spare, fence)
}

func (f *Fence) addInFlight(fence core1_0.Fence, value uint64) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.inFlight = append(f.inFlight, pendingSignal{fence: fence, value: value})
}

// forceComplete advances the counter without a binary fence
func (f *Fence) forceComplete(value uint64) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if value > f.completed {
		f.completed = value
	}
}

// retireSignalled must be called with the mutex held. It advances the counter past every
// in-flight signal whose binary fence is signalled, stopping at the first one that is not.
func (f *Fence) retireSignalled() error {
	retired := 0
	for _, signal := range f.inFlight {
		res, err := signal.fence.Status()
		if err != nil {
			return errors.Wrap(err, "failed to query fence status")
		}
		if res != core1_0.VKSuccess {
			break
		}

		if signal.value > f.completed {
			f.completed = signal.value
		}
		retired++
	}

	if retired == 0 {
		return nil
	}

	done := make([]core1_0.Fence, 0, retired)
	for i := 0; i < retired; i++ {
		done = append(done, f.inFlight[i].fence)
	}
	f.inFlight = append(f.inFlight[:0], f.inFlight[retired:]...)

	_, err := f.device.device.ResetFences(done)
	if err != nil {
		for _, fence := range done {
			fence.Destroy(f.device.allocationCallbacks)
		}
		return errors.Wrap(err, "failed to reset signalled fences")
	}
	f.spare = append(f.spare, done...)
	return nil
}

func (f *Fence) CompletedValue() uint64 {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	err := f.retireSignalled()
	if err != nil {
		f.device.logger.Error("failed to poll fence", slog.Any("error", err))
	}

	return f.completed
}

// WaitForValue blocks until the counter reaches value
func (f *Fence) WaitForValue(value uint64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.released {
		return errors.New("fence has been released")
	}

	for f.completed < value {
		var waitFor []core1_0.Fence
		for _, signal := range f.inFlight {
			waitFor = append(waitFor, signal.fence)
			if signal.value >= value {
				break
			}
		}

		if len(waitFor) == 0 {
			return errors.Newf("fence value %d was never requested; the counter is at %d", value, f.completed)
		}

		_, err := f.device.device.WaitForFences(true, time.Duration(math.MaxInt64), waitFor)
		if err != nil {
			return errors.Wrap(err, "failed to wait for fences")
		}

		err = f.retireSignalled()
		if err != nil {
			return err
		}
	}

	return nil
}

func (f *Fence) Release() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.released {
		return errors.New("fence was released twice")
	}
	f.released = true

	if len(f.inFlight) > 0 {
		waitFor := make([]core1_0.Fence, 0, len(f.inFlight))
		for _, signal := range f.inFlight {
			waitFor = append(waitFor, signal.fence)
		}

		_, err := f.device.device.WaitForFences(true, time.Duration(math.MaxInt64), waitFor)
		if err != nil {
			f.device.logger.Error("failed to wait for in-flight fences during release", slog.Any("error", err))
		}
	}

	for _, signal := range f.inFlight {
		signal.fence.Destroy(f.device.allocationCallbacks)
	}
	for _, fence := range f.spare {
		fence.Destroy(f.device.allocationCallbacks)
	}
	f.inFlight = nil
	f.spare = nil

	return nil
}
