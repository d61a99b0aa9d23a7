package vulkan

import (
	"github.com/vkngwrapper/arsenal/upload"
	"github.com/vkngwrapper/core/v2/core1_0"
	"golang.org/x/exp/slog"
)

// Queue submits fence signals to a Vulkan queue. Signals land after all work previously
// submitted to the queue has completed.
type Queue struct {
	logger *slog.Logger
	queue  core1_0.Queue
}

var _ upload.Queue = &Queue{}

func NewQueue(logger *slog.Logger, queue core1_0.Queue) *Queue {
	if logger == nil {
		logger = slog.Default()
	}

	return &Queue{
		logger: logger,
		queue:  queue,
	}
}

// RequestSignal submits an empty batch that signals fence's binary fence for value. If the
// submission fails, the queue is drained and the value is treated as complete so that the pages
// waiting on it are not stranded.
func (q *Queue) RequestSignal(fence upload.Fence, value uint64) {
	vulkanFence, ok := fence.(*Fence)
	if !ok {
		panic("vulkan.Queue can only signal fences created by vulkan.Device")
	}

	binaryFence, err := vulkanFence.acquireVulkanFence()
	if err != nil {
		q.logger.Error("failed to acquire fence for signal", slog.Uint64("value", value), slog.Any("error", err))
		q.drain(vulkanFence, value)
		return
	}

	_, err = q.queue.Submit(binaryFence, []core1_0.SubmitInfo{})
	if err != nil {
		q.logger.Error("failed to submit fence signal", slog.Uint64("value", value), slog.Any("error", err))
		vulkanFence.recycleVulkanFence(binaryFence)
		q.drain(vulkanFence, value)
		return
	}

	vulkanFence.addInFlight(binaryFence, value)
}

func (q *Queue) drain(fence *Fence, value uint64) {
	_, err := q.queue.WaitIdle()
	if err != nil {
		q.logger.Error("failed to wait for queue idle", slog.Any("error", err))
	}
	fence.forceComplete(value)
}
