// Package vulkan implements upload.Device on top of a Vulkan device. Every page is a
// host-visible, host-coherent buffer with its own device memory, persistently mapped for the
// lifetime of the page. Fences are counters built from binary Vulkan fences: each signal
// request submits an empty batch to the queue with a fence attached, and the counter advances
// as those fences become signalled.
package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/upload"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/core1_1"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/extensions/v2/khr_buffer_device_address"
	"golang.org/x/exp/slog"
)

const (
	// DefaultBufferUsage is the usage every page buffer is created with when DeviceOptions.BufferUsage is 0
	DefaultBufferUsage = core1_0.BufferUsageTransferSrc | core1_0.BufferUsageUniformBuffer |
		core1_0.BufferUsageVertexBuffer | core1_0.BufferUsageIndexBuffer | core1_0.BufferUsageStorageBuffer

	requiredMemoryFlags = core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent
)

type DeviceOptions struct {
	// BufferUsage is the usage every page buffer is created with. DefaultBufferUsage is used when
	// this is 0.
	BufferUsage core1_0.BufferUsageFlags
	// UseBufferDeviceAddress causes pages to report their buffer device address as their
	// upload.DeviceAddress. The bufferDeviceAddress feature must have been enabled on the device,
	// through core 1.2 or khr_buffer_device_address. When it is false, every page reports a
	// device address of 0, so suballocation device addresses are offsets into Page.Buffer().
	UseBufferDeviceAddress bool
	// AllocationCallbacks is an optional set of callbacks that will be executed from Vulkan on
	// objects created by this device
	AllocationCallbacks *driver.AllocationCallbacks
}

// Device is an upload.Device that creates pages and fences on a Vulkan device
type Device struct {
	logger              *slog.Logger
	device              core1_0.Device
	memoryProperties    *core1_0.PhysicalDeviceMemoryProperties
	allocationCallbacks *driver.AllocationCallbacks
	extensionData       *extensionData
	bufferUsage         core1_0.BufferUsageFlags
}

var _ upload.Device = &Device{}

// NewDevice creates a new Device
//
// physicalDevice - The PhysicalDevice that owns the provided Device
//
// device - The Device that pages and fences will be created from
func NewDevice(logger *slog.Logger, physicalDevice core1_0.PhysicalDevice, device core1_0.Device, options DeviceOptions) (*Device, error) {
	if logger == nil {
		logger = slog.Default()
	}

	extensions := newExtensionData(device, options.UseBufferDeviceAddress)
	if options.UseBufferDeviceAddress && extensions.BufferDeviceAddress == nil {
		return nil, errors.New("UseBufferDeviceAddress was requested, but neither core 1.2 nor khr_buffer_device_address are active")
	}

	bufferUsage := options.BufferUsage
	if bufferUsage == 0 {
		bufferUsage = DefaultBufferUsage
	}
	if extensions.BufferDeviceAddress != nil {
		bufferUsage |= khr_buffer_device_address.BufferUsageShaderDeviceAddress
	}

	return &Device{
		logger:              logger,
		device:              device,
		memoryProperties:    physicalDevice.MemoryProperties(),
		allocationCallbacks: options.AllocationCallbacks,
		extensionData:       extensions,
		bufferUsage:         bufferUsage,
	}, nil
}

func (d *Device) findMemoryTypeIndex(memoryTypeBits uint32) (int, error) {
	for memTypeIndex, memType := range d.memoryProperties.MemoryTypes {
		memTypeBit := uint32(1 << memTypeIndex)
		if memTypeBit&memoryTypeBits == 0 {
			continue
		}

		if memType.PropertyFlags&requiredMemoryFlags == requiredMemoryFlags {
			return memTypeIndex, nil
		}
	}

	return -1, errors.Wrapf(upload.DeviceAllocationFailedError, "no host-visible, host-coherent memory type is available in memory type bits %#x", memoryTypeBits)
}

func (d *Device) CreatePage(size int) (page upload.PageMemory, err error) {
	buffer, _, err := d.device.CreateBuffer(d.allocationCallbacks, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       d.bufferUsage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to create a %d-byte page buffer", size), upload.DeviceAllocationFailedError)
	}
	defer func() {
		if err != nil {
			buffer.Destroy(d.allocationCallbacks)
		}
	}()

	memReqs := buffer.MemoryRequirements()
	memoryTypeIndex, err := d.findMemoryTypeIndex(memReqs.MemoryTypeBits)
	if err != nil {
		return nil, err
	}

	allocInfo := core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryTypeIndex,
	}
	if d.extensionData.BufferDeviceAddress != nil {
		var allocFlagsInfo core1_1.MemoryAllocateFlagsInfo
		allocFlagsInfo.Flags = khr_buffer_device_address.MemoryAllocateDeviceAddress
		allocInfo.Next = allocFlagsInfo
	}

	memory, _, err := d.device.AllocateMemory(d.allocationCallbacks, allocInfo)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to allocate %d bytes of page memory", memReqs.Size), upload.DeviceAllocationFailedError)
	}
	defer func() {
		if err != nil {
			memory.Free(d.allocationCallbacks)
		}
	}()

	_, err = buffer.BindBufferMemory(memory, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to bind page memory to the page buffer")
	}

	vulkanPage, err := newPage(d, buffer, memory, size)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("vulkan.Device::CreatePage", slog.Int("size", size), slog.Int("memoryType", memoryTypeIndex))
	return vulkanPage, nil
}

func (d *Device) CreateFence() (upload.Fence, error) {
	return newFence(d), nil
}

// createVulkanFence creates an unsignalled binary fence
func (d *Device) createVulkanFence() (core1_0.Fence, common.VkResult, error) {
	return d.device.CreateFence(d.allocationCallbacks, core1_0.FenceCreateInfo{})
}
