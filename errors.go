package upload

import "github.com/cockroachdb/errors"

var (
	// InvalidRequestError is returned when an allocation request cannot be honored by any page:
	// zero or negative sizes, sizes or alignments larger than the page size, and alignments
	// that are not a power of two
	InvalidRequestError = errors.New("invalid allocation request")
	// OutOfMemoryError is returned when the allocator needs a new page and the device could not
	// create one
	OutOfMemoryError = errors.New("out of memory")
	// OutOfPageSpaceError is returned when a suballocation does not fit in the page it was
	// requested from. The allocator only requests suballocations from pages with room for them,
	// so this indicates a broken page list.
	OutOfPageSpaceError = errors.New("out of free memory in page")
	// DeviceAllocationFailedError should be wrapped by Device implementations that fail to
	// create page memory or fences
	DeviceAllocationFailedError = errors.New("device allocation failed")
	// InvalidPageError is returned when a PageHandle does not refer to a live page, or refers
	// to a page in a state that does not permit the requested operation
	InvalidPageError = errors.New("invalid page")
)
