package upload

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/arsenal/upload/memutils"
)

// CalculateStatistics adds this allocator's page and allocation counts to stats
func (a *Allocator) CalculateStatistics(stats *memutils.Statistics) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.calculateStatistics(stats)
}

func (a *Allocator) calculateStatistics(stats *memutils.Statistics) {
	a.addListStatistics(&a.unusedPages, stats)
	a.addListStatistics(&a.usedPages, stats)
	a.addListStatistics(&a.pendingPages, stats)
}

func (a *Allocator) addListStatistics(list *pageList, stats *memutils.Statistics) {
	for slot := list.head; slot != noSlot; slot = a.page(slot).next {
		p := a.page(slot)

		stats.PageCount++
		stats.PageBytes += p.size
		stats.AllocationCount += p.refCount
		stats.AllocationBytes += p.offset

		switch list.kind {
		case pageListUnused:
			stats.UnusedPageCount++
		case pageListUsed:
			stats.UsedPageCount++
		case pageListPending:
			stats.PendingPageCount++
		}
	}
}

// BuildStatsString returns a JSON document describing the allocator's pages. When detailed is
// true, every page is listed individually.
func (a *Allocator) BuildStatsString(detailed bool) string {
	a.logger.Debug("Allocator::BuildStatsString")

	a.mutex.Lock()
	defer a.mutex.Unlock()

	var stats memutils.Statistics
	a.calculateStatistics(&stats)

	writer := jwriter.NewWriter()
	obj := writer.Object()

	obj.Name("PageSize").Int(a.increment)
	if a.debugLabel != "" {
		obj.Name("Label").String(a.debugLabel)
	}
	if a.createFlags != 0 {
		obj.Name("Flags").String(a.createFlags.String())
	}

	totals := obj.Name("Total").Object()
	totals.Name("PageCount").Int(stats.PageCount)
	totals.Name("UnusedPageCount").Int(stats.UnusedPageCount)
	totals.Name("UsedPageCount").Int(stats.UsedPageCount)
	totals.Name("PendingPageCount").Int(stats.PendingPageCount)
	totals.Name("AllocationCount").Int(stats.AllocationCount)
	totals.Name("PageBytes").Int(stats.PageBytes)
	totals.Name("AllocationBytes").Int(stats.AllocationBytes)
	totals.End()

	if detailed {
		pages := obj.Name("Pages").Array()
		a.printPageList(&a.usedPages, &pages)
		a.printPageList(&a.pendingPages, &pages)
		a.printPageList(&a.unusedPages, &pages)
		pages.End()
	}

	obj.End()

	return string(writer.Bytes())
}

func (a *Allocator) printPageList(list *pageList, json *jwriter.ArrayState) {
	for slot := list.head; slot != noSlot; slot = a.page(slot).next {
		p := a.page(slot)

		pageObj := json.Object()
		pageObj.Name("ID").Int(p.id)
		pageObj.Name("List").String(list.kind.String())
		pageObj.Name("Offset").Int(p.offset)
		pageObj.Name("RefCount").Int(p.refCount)
		pageObj.Name("PendingSignalValue").Int(int(p.pendingSignalValue))
		pageObj.End()
	}
}
