// Package host implements upload.Device entirely in host memory. Pages are ordinary Go byte
// slices and fences are counters advanced by a Queue when the simulated device "finishes"
// the work submitted to it. It is useful for tests and for running upload-based code on
// machines without a graphics device.
package host

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/upload"
	"github.com/vkngwrapper/arsenal/upload/memutils"
)

const (
	// DefaultBaseAddress is the device address of the first page created by a Device when
	// DeviceOptions.BaseAddress is 0
	DefaultBaseAddress upload.DeviceAddress = 0x10000000
	// addressGranularity is the alignment of the device address of every page
	addressGranularity uint = 4096
)

type DeviceOptions struct {
	// BudgetBytes is the maximum number of bytes of page memory that may be live at once. 0 means
	// no limit. Page creation beyond the budget fails with upload.DeviceAllocationFailedError.
	BudgetBytes int
	// MaxFenceCount is the maximum number of fences that may be live at once. 0 means no limit.
	MaxFenceCount int
	// BaseAddress is the simulated device address of the first page
	BaseAddress upload.DeviceAddress
}

// Device is an upload.Device backed by host memory. It is safe for concurrent use.
type Device struct {
	budgetBytes   int64
	maxFenceCount int32

	allocatedBytes int64
	pageCount      int32
	fenceCount     int32
	nextAddress    uint64
}

var _ upload.Device = &Device{}

func NewDevice(options DeviceOptions) *Device {
	baseAddress := options.BaseAddress
	if baseAddress == 0 {
		baseAddress = DefaultBaseAddress
	}

	return &Device{
		budgetBytes:   int64(options.BudgetBytes),
		maxFenceCount: int32(options.MaxFenceCount),
		nextAddress:   uint64(baseAddress),
	}
}

// AllocatedBytes returns the number of bytes of page memory currently live
func (d *Device) AllocatedBytes() int {
	return int(atomic.LoadInt64(&d.allocatedBytes))
}

// PageCount returns the number of pages currently live
func (d *Device) PageCount() int {
	return int(atomic.LoadInt32(&d.pageCount))
}

// FenceCount returns the number of fences currently live
func (d *Device) FenceCount() int {
	return int(atomic.LoadInt32(&d.fenceCount))
}

func (d *Device) addAllocationWithBudget(size int) error {
	if d.budgetBytes <= 0 {
		atomic.AddInt64(&d.allocatedBytes, int64(size))
		return nil
	}

	for {
		currentVal := atomic.LoadInt64(&d.allocatedBytes)
		targetVal := currentVal + int64(size)

		if targetVal > d.budgetBytes {
			return errors.Wrapf(upload.DeviceAllocationFailedError,
				"allocating %d bytes would exceed the device budget of %d bytes (%d in use)", size, d.budgetBytes, currentVal)
		}

		if atomic.CompareAndSwapInt64(&d.allocatedBytes, currentVal, targetVal) {
			return nil
		}
	}
}

func (d *Device) removeAllocation(size int) {
	newVal := atomic.AddInt64(&d.allocatedBytes, int64(-size))
	if newVal < 0 {
		panic("host device allocated bytes went negative")
	}
}

func (d *Device) CreatePage(size int) (upload.PageMemory, error) {
	if size <= 0 {
		return nil, errors.Wrapf(upload.DeviceAllocationFailedError, "cannot create a page of %d bytes", size)
	}

	err := d.addAllocationWithBudget(size)
	if err != nil {
		return nil, err
	}

	addressSpan := uint64(memutils.AlignUp(size, addressGranularity))
	address := atomic.AddUint64(&d.nextAddress, addressSpan) - addressSpan
	atomic.AddInt32(&d.pageCount, 1)

	return &Page{
		device:  d,
		data:    make([]byte, size),
		address: upload.DeviceAddress(address),
	}, nil
}

func (d *Device) CreateFence() (upload.Fence, error) {
	newCount := atomic.AddInt32(&d.fenceCount, 1)
	if d.maxFenceCount > 0 && newCount > d.maxFenceCount {
		atomic.AddInt32(&d.fenceCount, -1)
		return nil, errors.Wrapf(upload.DeviceAllocationFailedError, "the device cannot hold more than %d fences", d.maxFenceCount)
	}

	return newFence(d), nil
}
