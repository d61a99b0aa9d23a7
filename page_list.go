package upload

import (
	"fmt"
)

type pageListKind byte

const (
	pageListNone pageListKind = iota
	pageListUnused
	pageListUsed
	pageListPending
)

var pageListKindMapping = make(map[pageListKind]string)

func (k pageListKind) String() string {
	return pageListKindMapping[k]
}

func init() {
	pageListKindMapping[pageListNone] = "None"
	pageListKindMapping[pageListUnused] = "Unused"
	pageListKindMapping[pageListUsed] = "Used"
	pageListKindMapping[pageListPending] = "Pending"
}

// pageList is a doubly-linked list threaded through the allocator's page arena by slot
type pageList struct {
	kind  pageListKind
	head  pageSlot
	count int
}

func (l *pageList) Init(kind pageListKind) {
	l.kind = kind
	l.head = noSlot
	l.count = 0
}

func (l *pageList) IsEmpty() bool {
	return l.head == noSlot
}

func (a *Allocator) page(slot pageSlot) *page {
	return &a.pages[slot]
}

// handleOf returns the PageHandle of the page currently occupying slot
func (a *Allocator) handleOf(slot pageSlot) PageHandle {
	return PageHandle(int64(a.pages[slot].generation)<<pageHandleSlotBits | int64(slot))
}

// lookupPage resolves a PageHandle to its page. Handles to destroyed pages do not resolve,
// even when their slot has since been reused.
func (a *Allocator) lookupPage(handle PageHandle) (*page, bool) {
	if handle < 0 {
		return nil, false
	}

	slot := pageSlot(handle & pageHandleSlotMask)
	if int(slot) >= len(a.pages) {
		return nil, false
	}

	p := &a.pages[slot]
	if !p.live() || p.generation != uint32(handle>>pageHandleSlotBits) {
		return nil, false
	}
	return p, true
}

func (a *Allocator) listForKind(kind pageListKind) *pageList {
	switch kind {
	case pageListUnused:
		return &a.unusedPages
	case pageListUsed:
		return &a.usedPages
	case pageListPending:
		return &a.pendingPages
	}

	panic(fmt.Sprintf("no page list for list kind %s", kind))
}

// linkPage places a detached page at the head of list
func (a *Allocator) linkPage(slot pageSlot, list *pageList) {
	p := a.page(slot)
	if p.list != pageListNone || p.prev != noSlot || p.next != noSlot {
		panic(fmt.Sprintf("attempted to link page %d into the %s list while it is still linked into the %s list", p.id, list.kind, p.list))
	}

	p.next = list.head
	if list.head != noSlot {
		a.page(list.head).prev = slot
	}
	p.list = list.kind

	list.head = slot
	list.count++
}

// unlinkPage detaches a page from whichever list it is in
func (a *Allocator) unlinkPage(slot pageSlot) {
	p := a.page(slot)
	if p.list == pageListNone {
		panic(fmt.Sprintf("attempted to unlink page %d, which is not in any list", p.id))
	}
	list := a.listForKind(p.list)

	if p.prev != noSlot {
		a.page(p.prev).next = p.next
	} else {
		list.head = p.next
	}

	if p.next != noSlot {
		a.page(p.next).prev = p.prev
	}

	p.prev = noSlot
	p.next = noSlot
	p.list = pageListNone
	list.count--
}

// linkPageChain prepends a chain of detached pages, already linked to one another starting at
// head, to list. count must be the number of pages in the chain.
func (a *Allocator) linkPageChain(head pageSlot, count int, list *pageList) {
	if head == noSlot {
		return
	}
	if a.page(head).prev != noSlot {
		panic(fmt.Sprintf("attempted to link a page chain into the %s list from the middle of the chain", list.kind))
	}

	last := head
	for {
		p := a.page(last)
		if p.list != pageListNone {
			panic(fmt.Sprintf("attempted to link page %d into the %s list while it is still linked into the %s list", p.id, list.kind, p.list))
		}
		p.list = list.kind

		if p.next == noSlot {
			break
		}
		last = p.next
	}

	a.page(last).next = list.head
	if list.head != noSlot {
		a.page(list.head).prev = last
	}

	list.head = head
	list.count += count
}

// detachList empties list and returns its former head. The returned pages keep their
// links to one another but no longer belong to any list.
func (a *Allocator) detachList(list *pageList) pageSlot {
	head := list.head
	for slot := head; slot != noSlot; slot = a.page(slot).next {
		a.page(slot).list = pageListNone
	}

	list.head = noSlot
	list.count = 0
	return head
}
