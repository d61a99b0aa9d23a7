package upload

//go:generate mockgen -source device.go -destination ./mocks/device.go -package mock_upload

// DeviceAddress is the device-side address of a byte of page memory. Its meaning is
// backend-specific: the allocator only adds suballocation offsets to a page's base address.
type DeviceAddress uint64

// Device creates the page memory and completion fences used by an Allocator
type Device interface {
	// CreatePage creates a block of CPU-writable, device-readable memory at least size bytes
	// long. Implementations should return an error wrapping DeviceAllocationFailedError when
	// the memory cannot be created.
	CreatePage(size int) (PageMemory, error)
	// CreateFence creates a completion fence whose completed value starts at 0. Implementations
	// should return an error wrapping DeviceAllocationFailedError when the fence cannot be created.
	CreateFence() (Fence, error)
}

// PageMemory is the backing allocation of a single page
type PageMemory interface {
	// Bytes returns the CPU-writable view of the page. The slice must remain valid, and must not
	// move, until Release is called.
	Bytes() []byte
	// DeviceAddress returns the device-side address of the first byte returned by Bytes
	DeviceAddress() DeviceAddress
	// SetDebugLabel attaches a human-readable name to the backing resource, if the backend
	// supports it
	SetDebugLabel(label string)
	// Release unmaps and destroys the backing allocation
	Release() error
}

// Queue accepts signal requests for completion fences. A signal request asks the device to
// set the fence's completed value to value once all work submitted before the request has
// finished executing.
type Queue interface {
	RequestSignal(fence Fence, value uint64)
}

// Fence reports the most recent value the device has signalled. The value never decreases.
type Fence interface {
	CompletedValue() uint64
	Release() error
}

// FenceWaiter can optionally be implemented by a Fence. When it is, Allocator.Destroy blocks in
// WaitForValue instead of polling CompletedValue while it drains pending pages.
type FenceWaiter interface {
	WaitForValue(value uint64) error
}
