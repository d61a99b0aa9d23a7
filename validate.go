package upload

import (
	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
)

// Validate performs internal consistency checks on the allocator's page lists. It should not
// be possible for this method to return an error, but it may assist in diagnosing issues.
// When built with the debug_mem_utils build tag, the allocator calls this after every
// operation that moves pages between lists and panics if it fails.
func (a *Allocator) Validate() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.validate()
}

func (a *Allocator) validate() error {
	membership := swiss.NewMap[pageSlot, pageListKind](uint32(a.totalPageCount) + 1)

	err := a.validateList(&a.unusedPages, membership)
	if err != nil {
		return err
	}
	err = a.validateList(&a.usedPages, membership)
	if err != nil {
		return err
	}
	err = a.validateList(&a.pendingPages, membership)
	if err != nil {
		return err
	}

	if a.pendingPageCount != a.pendingPages.count {
		return errors.Errorf("the pending page count (%d) does not match the length of the pending list (%d)", a.pendingPageCount, a.pendingPages.count)
	}

	listedCount := a.unusedPages.count + a.usedPages.count + a.pendingPages.count
	if listedCount != a.totalPageCount {
		return errors.Errorf("the total page count (%d) does not match the number of pages in all lists (%d)", a.totalPageCount, listedCount)
	}

	liveCount := 0
	for slot := range a.pages {
		if !a.pages[slot].live() {
			continue
		}

		liveCount++
		if !membership.Has(pageSlot(slot)) {
			return errors.Errorf("page %d is live but is not in any list", a.pages[slot].id)
		}
	}

	if liveCount != a.totalPageCount {
		return errors.Errorf("the total page count (%d) does not match the number of live pages (%d)", a.totalPageCount, liveCount)
	}

	return nil
}

func (a *Allocator) validateList(list *pageList, membership *swiss.Map[pageSlot, pageListKind]) error {
	actualCount := 0
	prev := noSlot

	for slot := list.head; slot != noSlot; slot = a.pages[slot].next {
		if slot < 0 || int(slot) >= len(a.pages) {
			return errors.Errorf("the %s list links to page slot %d, which is out of range", list.kind, slot)
		}

		p := &a.pages[slot]
		if !p.live() {
			return errors.Errorf("the %s list links to page slot %d, which has been destroyed", list.kind, slot)
		}

		otherList, seen := membership.Get(slot)
		if seen {
			return errors.Errorf("page %d appears in the %s list and the %s list", p.id, otherList, list.kind)
		}
		membership.Put(slot, list.kind)

		if p.list != list.kind {
			return errors.Errorf("page %d is in the %s list but is marked as belonging to the %s list", p.id, list.kind, p.list)
		}
		if p.prev != prev {
			return errors.Errorf("page %d in the %s list has a broken link to the previous page", p.id, list.kind)
		}
		if p.size != a.increment {
			return errors.Errorf("page %d has size %d, but the allocator's page size is %d", p.id, p.size, a.increment)
		}
		if p.offset < 0 || p.offset > p.size {
			return errors.Errorf("page %d has its cursor at offset %d, outside of its %d bytes", p.id, p.offset, p.size)
		}
		if p.refCount < 0 {
			return errors.Errorf("page %d has a negative reference count %d", p.id, p.refCount)
		}

		switch list.kind {
		case pageListUnused:
			if p.offset != 0 {
				return errors.Errorf("unused page %d has its cursor at offset %d", p.id, p.offset)
			}
			if p.refCount != 0 {
				return errors.Errorf("unused page %d has %d outstanding references", p.id, p.refCount)
			}
		case pageListPending:
			if p.pendingSignalValue == 0 {
				return errors.Errorf("pending page %d has never had a signal requested", p.id)
			}
			if p.refCount != 0 {
				return errors.Errorf("pending page %d has %d outstanding references", p.id, p.refCount)
			}
		}

		prev = slot
		actualCount++
	}

	if actualCount != list.count {
		return errors.Errorf("the listed number of pages in the %s list (%d) does not match the actual number of pages (%d)", list.kind, list.count, actualCount)
	}

	return nil
}
