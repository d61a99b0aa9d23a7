package memutils

// Statistics summarizes the pages owned by an allocator and the suballocations handed out from them
type Statistics struct {
	// PageCount is the total number of pages, regardless of which list they are in
	PageCount        int
	UnusedPageCount  int
	UsedPageCount    int
	PendingPageCount int

	// AllocationCount is the number of suballocations that have not yet been marked dereferenced
	AllocationCount int
	// PageBytes is the number of bytes of device memory backing all pages
	PageBytes int
	// AllocationBytes is the number of bytes consumed by the cursors of used and pending pages,
	// alignment padding included
	AllocationBytes int
}

func (s *Statistics) Clear() {
	s.PageCount = 0
	s.UnusedPageCount = 0
	s.UsedPageCount = 0
	s.PendingPageCount = 0
	s.AllocationCount = 0
	s.PageBytes = 0
	s.AllocationBytes = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.PageCount += other.PageCount
	s.UnusedPageCount += other.UnusedPageCount
	s.UsedPageCount += other.UsedPageCount
	s.PendingPageCount += other.PendingPageCount
	s.AllocationCount += other.AllocationCount
	s.PageBytes += other.PageBytes
	s.AllocationBytes += other.AllocationBytes
}

// UnusedBytes is the number of bytes of page memory not consumed by any cursor
func (s *Statistics) UnusedBytes() int {
	return s.PageBytes - s.AllocationBytes
}
