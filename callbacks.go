package upload

// AllocatePageCallback is called after the allocator creates a new page. Callbacks run once the
// allocator's mutex has been released, so they may call back into the allocator.
type AllocatePageCallback func(
	allocator *Allocator,
	page PageHandle,
	memory PageMemory,
	size int,
	userData interface{},
)

// FreePageCallback is called after the allocator destroys a page, immediately before the page's
// memory is released. Like AllocatePageCallback, it runs outside the allocator's mutex.
type FreePageCallback func(
	allocator *Allocator,
	page PageHandle,
	memory PageMemory,
	size int,
	userData interface{},
)

type MemoryCallbackOptions struct {
	Allocate AllocatePageCallback
	Free     FreePageCallback
	UserData interface{}
}

type memoryCallbacks struct {
	Callbacks *MemoryCallbackOptions
	Allocator *Allocator
}

func (c *memoryCallbacks) Allocate(
	page PageHandle,
	memory PageMemory,
	size int,
) {
	if c.Callbacks != nil && c.Callbacks.Allocate != nil {
		c.Callbacks.Allocate(c.Allocator, page, memory, size, c.Callbacks.UserData)
	}
}

func (c *memoryCallbacks) Free(
	page PageHandle,
	memory PageMemory,
	size int,
) {
	if c.Callbacks != nil && c.Callbacks.Free != nil {
		c.Callbacks.Free(c.Allocator, page, memory, size, c.Callbacks.UserData)
	}
}

type pageEventKind int

const (
	pageEventCreated pageEventKind = iota
	pageEventDestroyed
)

type pageEvent struct {
	kind   pageEventKind
	handle PageHandle
	id     int
	memory PageMemory
	fence  Fence
	size   int
}
