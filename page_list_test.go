package upload

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func newTestAllocator(t *testing.T, pageCount int) *Allocator {
	allocator, err := New(slog.Default(), &fakeDevice{}, CreateOptions{
		PageSize:         1024,
		PreallocateBytes: pageCount * 1024,
	})
	require.NoError(t, err)
	require.Equal(t, pageCount, allocator.unusedPages.count)
	return allocator
}

func listSlots(a *Allocator, list *pageList) []pageSlot {
	var slots []pageSlot
	for slot := list.head; slot != noSlot; slot = a.page(slot).next {
		slots = append(slots, slot)
	}
	return slots
}

func TestLinkAndUnlink(t *testing.T) {
	a := newTestAllocator(t, 3)

	// Pages are created at the head of the unused list
	require.Equal(t, []pageSlot{2, 1, 0}, listSlots(a, &a.unusedPages))

	a.unlinkPage(1)
	require.Equal(t, []pageSlot{2, 0}, listSlots(a, &a.unusedPages))
	require.Equal(t, 2, a.unusedPages.count)
	require.Equal(t, pageListNone, a.page(1).list)

	a.linkPage(1, &a.usedPages)
	require.Equal(t, []pageSlot{1}, listSlots(a, &a.usedPages))
	require.Equal(t, pageListUsed, a.page(1).list)

	a.unlinkPage(2)
	a.linkPage(2, &a.usedPages)
	require.Equal(t, []pageSlot{2, 1}, listSlots(a, &a.usedPages))
	require.Equal(t, pageSlot(2), a.page(1).prev)

	a.unlinkPage(1)
	a.unlinkPage(2)
	require.True(t, a.usedPages.IsEmpty())
	a.linkPage(1, &a.unusedPages)
	a.linkPage(2, &a.unusedPages)

	require.NoError(t, a.Validate())
}

func TestLinkPageTwicePanics(t *testing.T) {
	a := newTestAllocator(t, 1)

	require.Panics(t, func() {
		a.linkPage(0, &a.usedPages)
	})
}

func TestUnlinkDetachedPagePanics(t *testing.T) {
	a := newTestAllocator(t, 1)
	a.unlinkPage(0)

	require.Panics(t, func() {
		a.unlinkPage(0)
	})
}

func TestDetachListAndLinkChain(t *testing.T) {
	a := newTestAllocator(t, 3)
	a.linkPageChain(noSlot, 0, &a.pendingPages)
	require.True(t, a.pendingPages.IsEmpty())

	head := a.detachList(&a.unusedPages)
	require.True(t, a.unusedPages.IsEmpty())
	require.Equal(t, 0, a.unusedPages.count)
	require.Equal(t, pageSlot(2), head)
	for slot := head; slot != noSlot; slot = a.page(slot).next {
		require.Equal(t, pageListNone, a.page(slot).list)
	}

	a.linkPage(detachChainHead(t, a, &head), &a.usedPages)
	a.linkPageChain(head, 2, &a.usedPages)
	require.Equal(t, []pageSlot{1, 0, 2}, listSlots(a, &a.usedPages))
	require.Equal(t, 3, a.usedPages.count)
	require.NoError(t, a.Validate())
}

// detachChainHead removes the first page of a detached chain and returns it
func detachChainHead(t *testing.T, a *Allocator, head *pageSlot) pageSlot {
	slot := *head
	require.NotEqual(t, noSlot, slot)

	p := a.page(slot)
	*head = p.next
	if p.next != noSlot {
		a.page(p.next).prev = noSlot
	}
	p.next = noSlot
	return slot
}

func TestValidateDetectsBrokenLists(t *testing.T) {
	a := newTestAllocator(t, 2)
	require.NoError(t, a.Validate())

	a.unusedPages.count = 3
	require.ErrorContains(t, a.Validate(), "does not match the actual number of pages")
	a.unusedPages.count = 2

	a.page(0).offset = 12
	require.ErrorContains(t, a.Validate(), "unused page")
	a.page(0).offset = 0

	a.page(1).list = pageListPending
	require.ErrorContains(t, a.Validate(), "marked as belonging to the Pending list")
	a.page(1).list = pageListUnused

	a.pendingPageCount = 1
	require.ErrorContains(t, a.Validate(), "pending page count")
	a.pendingPageCount = 0

	require.NoError(t, a.Validate())
}

func TestValidateDetectsOrphanedPage(t *testing.T) {
	a := newTestAllocator(t, 2)
	a.unlinkPage(0)

	// The list counts still add up, but one live page belongs to none of them
	a.totalPageCount--
	require.ErrorContains(t, a.Validate(), "not in any list")
}

func TestFenceCommittedPagesOrder(t *testing.T) {
	a := newTestAllocator(t, 0)
	queue := &fakeQueue{}

	var handles []PageHandle
	for i := 0; i < 4; i++ {
		allocation, err := a.Allocate(1024, 0)
		require.NoError(t, err)
		handles = append(handles, allocation.Page)
	}
	require.Equal(t, []pageSlot{3, 2, 1, 0}, listSlots(a, &a.usedPages))

	require.NoError(t, a.MarkDereferenced(handles[0]))
	require.NoError(t, a.MarkDereferenced(handles[2]))
	require.NoError(t, a.MarkDereferenced(handles[3]))

	a.FenceCommittedPages(queue)

	// Each group is prepended as the used list is walked, reversing it
	require.Equal(t, []pageSlot{0, 2, 3}, listSlots(a, &a.pendingPages))
	require.Equal(t, []pageSlot{1}, listSlots(a, &a.usedPages))
	require.Len(t, queue.signals, 3)
	for _, signal := range queue.signals {
		require.Equal(t, uint64(1), signal.value)
	}
	require.NoError(t, a.Validate())

	queue.completeAll()
	require.Equal(t, 3, a.RetirePendingPages())
	require.Equal(t, 3, a.unusedPages.count)
	require.NoError(t, a.Validate())
}

func TestSlotReuseAdvancesGeneration(t *testing.T) {
	a := newTestAllocator(t, 1)

	first := a.handleOf(0)
	p, ok := a.lookupPage(first)
	require.True(t, ok)
	require.Equal(t, uint32(1), p.generation)

	require.NoError(t, a.Shrink())
	require.Equal(t, uint32(1), a.pages[0].generation)
	require.Equal(t, []pageSlot{0}, a.freeSlots)
	_, ok = a.lookupPage(first)
	require.False(t, ok)

	allocation, err := a.Allocate(16, 0)
	require.NoError(t, err)
	require.Len(t, a.pages, 1)
	require.Equal(t, uint32(2), a.pages[0].generation)
	require.NotEqual(t, first, allocation.Page)
	require.Equal(t, first&pageHandleSlotMask, allocation.Page&pageHandleSlotMask)

	_, ok = a.lookupPage(first)
	require.False(t, ok)
	p, ok = a.lookupPage(allocation.Page)
	require.True(t, ok)
	require.Equal(t, 1, p.refCount)
}

func TestLookupPageRejectsMalformedHandles(t *testing.T) {
	a := newTestAllocator(t, 1)

	_, ok := a.lookupPage(NoPage)
	require.False(t, ok)
	// Slot 0 with generation 0 has never held a page
	_, ok = a.lookupPage(PageHandle(0))
	require.False(t, ok)
	_, ok = a.lookupPage(a.handleOf(0) + 1)
	require.False(t, ok)
	_, ok = a.lookupPage(a.handleOf(0))
	require.True(t, ok)
}

func TestFailedPageCreationLeavesListsIntact(t *testing.T) {
	device := &fakeDevice{}
	a, err := New(slog.Default(), device, CreateOptions{
		PageSize:         1024,
		PreallocateBytes: 1024,
	})
	require.NoError(t, err)
	device.failPages = true

	allocation, err := a.Allocate(1024, 0)
	require.NoError(t, err)

	_, err = a.Allocate(1024, 0)
	require.ErrorIs(t, err, OutOfMemoryError)
	require.ErrorIs(t, err, DeviceAllocationFailedError)

	require.Len(t, a.pages, 1)
	require.Empty(t, a.freeSlots)
	require.Equal(t, 1, a.totalPageCount)
	require.Equal(t, []pageSlot{0}, listSlots(a, &a.usedPages))
	require.True(t, a.unusedPages.IsEmpty())
	require.NoError(t, a.Validate())

	device.failPages = false
	require.NoError(t, a.MarkDereferenced(allocation.Page))
	_, err = a.Allocate(1024, 0)
	require.NoError(t, err)
	require.Equal(t, 2, a.totalPageCount)
	require.Len(t, device.pages, 2)
}
