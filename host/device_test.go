package host_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/upload"
	"github.com/vkngwrapper/arsenal/upload/host"
)

func TestCreatePage(t *testing.T) {
	device := host.NewDevice(host.DeviceOptions{})

	first, err := device.CreatePage(1000)
	require.NoError(t, err)
	second, err := device.CreatePage(1000)
	require.NoError(t, err)

	require.Len(t, first.Bytes(), 1000)
	require.Equal(t, host.DefaultBaseAddress, first.DeviceAddress())
	require.Equal(t, host.DefaultBaseAddress+4096, second.DeviceAddress())
	require.Equal(t, 2000, device.AllocatedBytes())
	require.Equal(t, 2, device.PageCount())

	first.SetDebugLabel("frame constants")
	require.Equal(t, "frame constants", first.(*host.Page).DebugLabel())

	require.NoError(t, first.Release())
	require.True(t, first.(*host.Page).Released())
	require.Error(t, first.Release())
	require.Equal(t, 1000, device.AllocatedBytes())
	require.Equal(t, 1, device.PageCount())

	require.NoError(t, second.Release())
	require.Zero(t, device.AllocatedBytes())
}

func TestCreatePageBudget(t *testing.T) {
	device := host.NewDevice(host.DeviceOptions{BudgetBytes: 2048})

	first, err := device.CreatePage(1024)
	require.NoError(t, err)
	_, err = device.CreatePage(1024)
	require.NoError(t, err)

	_, err = device.CreatePage(1024)
	require.Error(t, err)
	require.True(t, errors.Is(err, upload.DeviceAllocationFailedError))
	require.Equal(t, 2048, device.AllocatedBytes())

	require.NoError(t, first.Release())
	_, err = device.CreatePage(1024)
	require.NoError(t, err)
}

func TestCreateFenceLimit(t *testing.T) {
	device := host.NewDevice(host.DeviceOptions{MaxFenceCount: 1})

	fence, err := device.CreateFence()
	require.NoError(t, err)
	require.Zero(t, fence.CompletedValue())

	_, err = device.CreateFence()
	require.True(t, errors.Is(err, upload.DeviceAllocationFailedError))
	require.Equal(t, 1, device.FenceCount())

	require.NoError(t, fence.Release())
	require.Zero(t, device.FenceCount())

	_, err = device.CreateFence()
	require.NoError(t, err)
}

func TestQueueCompletesInOrder(t *testing.T) {
	device := host.NewDevice(host.DeviceOptions{})
	queue := host.NewQueue()

	first, err := device.CreateFence()
	require.NoError(t, err)
	second, err := device.CreateFence()
	require.NoError(t, err)

	queue.RequestSignal(first, 1)
	queue.RequestSignal(second, 1)
	queue.RequestSignal(first, 2)
	require.Equal(t, 3, queue.PendingSignals())
	require.Zero(t, first.CompletedValue())

	require.Equal(t, 1, queue.Complete(1))
	require.Equal(t, uint64(1), first.CompletedValue())
	require.Zero(t, second.CompletedValue())

	require.Equal(t, 2, queue.CompleteAll())
	require.Equal(t, uint64(2), first.CompletedValue())
	require.Equal(t, uint64(1), second.CompletedValue())
	require.Zero(t, queue.PendingSignals())
	require.Zero(t, queue.Complete(5))
}

func TestImmediateQueue(t *testing.T) {
	device := host.NewDevice(host.DeviceOptions{})
	queue := host.NewImmediateQueue()

	fence, err := device.CreateFence()
	require.NoError(t, err)

	queue.RequestSignal(fence, 3)
	require.Equal(t, uint64(3), fence.CompletedValue())
	require.Zero(t, queue.PendingSignals())
}

func TestFenceNeverDecreases(t *testing.T) {
	device := host.NewDevice(host.DeviceOptions{})
	fence, err := device.CreateFence()
	require.NoError(t, err)

	hostFence := fence.(*host.Fence)
	hostFence.Signal(5)
	hostFence.Signal(2)
	require.Equal(t, uint64(5), fence.CompletedValue())
}

func TestFenceWaitForValue(t *testing.T) {
	device := host.NewDevice(host.DeviceOptions{})
	queue := host.NewQueue()

	fence, err := device.CreateFence()
	require.NoError(t, err)
	queue.RequestSignal(fence, 1)

	done := make(chan error)
	go func() {
		done <- fence.(*host.Fence).WaitForValue(1)
	}()

	queue.CompleteAll()
	require.NoError(t, <-done)
	require.NoError(t, fence.(*host.Fence).WaitForValue(1))

	require.NoError(t, fence.Release())
	require.Error(t, fence.(*host.Fence).WaitForValue(1))
}
