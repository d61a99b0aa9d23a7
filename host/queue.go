package host

import (
	"fmt"
	"sync"

	"github.com/vkngwrapper/arsenal/upload"
)

type signalRequest struct {
	fence *Fence
	value uint64
}

// Queue is an upload.Queue that records signal requests in submission order. Requests are
// completed when the consumer decides the simulated device has finished the work before them,
// by calling Complete or CompleteAll. A queue created with NewImmediateQueue completes every
// request as soon as it is made.
type Queue struct {
	mutex     sync.Mutex
	immediate bool
	requests  []signalRequest
}

var _ upload.Queue = &Queue{}

func NewQueue() *Queue {
	return &Queue{}
}

func NewImmediateQueue() *Queue {
	return &Queue{immediate: true}
}

func (q *Queue) RequestSignal(fence upload.Fence, value uint64) {
	hostFence, isHostFence := fence.(*Fence)
	if !isHostFence {
		panic(fmt.Sprintf("host queue received a signal request for a fence of type %T", fence))
	}

	if q.immediate {
		hostFence.Signal(value)
		return
	}

	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.requests = append(q.requests, signalRequest{fence: hostFence, value: value})
}

// PendingSignals returns the number of signal requests that have not yet been completed
func (q *Queue) PendingSignals() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return len(q.requests)
}

// Complete completes up to count of the oldest signal requests and returns the number completed
func (q *Queue) Complete(count int) int {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return q.complete(count)
}

// CompleteAll completes every outstanding signal request and returns the number completed
func (q *Queue) CompleteAll() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return q.complete(len(q.requests))
}

func (q *Queue) complete(count int) int {
	if count < 0 {
		count = 0
	}
	if count > len(q.requests) {
		count = len(q.requests)
	}

	for i := 0; i < count; i++ {
		request := q.requests[i]
		request.fence.Signal(request.value)
	}

	remaining := copy(q.requests, q.requests[count:])
	q.requests = q.requests[:remaining]

	return count
}
