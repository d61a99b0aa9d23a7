package upload

// Allocation is a suballocation returned from Allocator.Allocate. It stays valid until its page
// is retired, which cannot happen before MarkDereferenced has been called for it and the
// page's fence has been reached.
type Allocation struct {
	// Page is the page this allocation was carved from. Pass it to Allocator.MarkDereferenced
	// once the device work reading this allocation has been recorded.
	Page PageHandle
	// Offset is the offset in bytes of this allocation from the start of its page
	Offset int
	// Size is the size in bytes of this allocation
	Size int
	// Data is the CPU-writable view of this allocation. Its length and capacity are both Size.
	Data []byte
	// DeviceAddress is the device-side address of the first byte of Data
	DeviceAddress DeviceAddress
}

// End returns the offset of the first byte past the end of this allocation
func (a Allocation) End() int {
	return a.Offset + a.Size
}
