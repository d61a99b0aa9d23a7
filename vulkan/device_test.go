//go:build vulkan_device

package vulkan

import (
	"io"
	"log"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/upload"
	"github.com/vkngwrapper/core/v2"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v2/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v2/khr_portability_subset"
	"golang.org/x/exp/slog"
)

func logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	log.Printf("[%s %s] - %s", severity, msgType, data.Message)
	return false
}

type application struct {
	instance       core1_0.Instance
	debugMessenger ext_debug_utils.DebugUtilsMessenger
	physicalDevice core1_0.PhysicalDevice
	device         core1_0.Device
	queue          core1_0.Queue
}

func createApplication(t require.TestingT, name string) *application {
	runtime.LockOSThread()

	loader, err := core.CreateSystemLoader()
	require.NoError(t, err)

	instanceExtensions, _, err := loader.AvailableExtensions()
	require.NoError(t, err)

	instanceExtensionNames := []string{ext_debug_utils.ExtensionName}
	var flags core1_0.InstanceCreateFlags
	_, ok := instanceExtensions[khr_portability_enumeration.ExtensionName]
	if ok {
		instanceExtensionNames = append(instanceExtensionNames, khr_portability_enumeration.ExtensionName)
		flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	instance, _, err := loader.CreateInstance(nil, core1_0.InstanceCreateInfo{
		ApplicationName:       name,
		ApplicationVersion:    common.CreateVersion(1, 0, 0),
		EngineName:            "go test",
		EngineVersion:         common.CreateVersion(1, 0, 0),
		APIVersion:            common.Vulkan1_0,
		EnabledExtensionNames: instanceExtensionNames,
		Flags:                 flags,
	})
	require.NoError(t, err)

	debugLoader := ext_debug_utils.CreateExtensionFromInstance(instance)
	debugMessenger, _, err := debugLoader.CreateDebugUtilsMessenger(instance, nil, ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    logDebug,
	})
	require.NoError(t, err)

	gpus, _, err := instance.EnumeratePhysicalDevices()
	require.NoError(t, err)

	physDevice := gpus[0]

	graphicsFamily := -1
	queueProps := physDevice.QueueFamilyProperties()
	for queueIndex, queueFamily := range queueProps {
		if queueFamily.QueueFlags&core1_0.QueueGraphics != 0 {
			graphicsFamily = queueIndex
			break
		}
	}
	require.GreaterOrEqual(t, graphicsFamily, 0)

	var deviceExtensionNames []string
	deviceExtensions, _, err := physDevice.EnumerateDeviceExtensionProperties()
	require.NoError(t, err)

	_, ok = deviceExtensions[khr_portability_subset.ExtensionName]
	if ok {
		deviceExtensionNames = append(deviceExtensionNames, khr_portability_subset.ExtensionName)
	}

	device, _, err := physDevice.CreateDevice(nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos: []core1_0.DeviceQueueCreateInfo{
			{
				QueueFamilyIndex: graphicsFamily,
				QueuePriorities:  []float32{0.0},
			},
		},
		EnabledExtensionNames: deviceExtensionNames,
	})
	require.NoError(t, err)

	return &application{
		instance:       instance,
		debugMessenger: debugMessenger,
		physicalDevice: physDevice,
		device:         device,
		queue:          device.GetQueue(graphicsFamily, 0),
	}
}

func (a *application) destroy(t require.TestingT) {
	_, err := a.device.WaitIdle()
	require.NoError(t, err)

	a.device.Destroy(nil)
	a.debugMessenger.Destroy(nil)
	a.instance.Destroy(nil)

	runtime.UnlockOSThread()
}

func TestVulkanPageLifecycle(t *testing.T) {
	app := createApplication(t, "TestVulkanPageLifecycle")
	defer app.destroy(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	device, err := NewDevice(logger, app.physicalDevice, app.device, DeviceOptions{})
	require.NoError(t, err)
	queue := NewQueue(logger, app.queue)

	allocator, err := upload.New(logger, device, upload.CreateOptions{
		PageSize:   64 * 1024,
		DebugLabel: "vulkan test",
	})
	require.NoError(t, err)

	first, err := allocator.Allocate(256, 256)
	require.NoError(t, err)
	require.Equal(t, 0, first.Offset)
	require.Len(t, first.Data, 256)
	first.Data[0] = 0xAB

	second, err := allocator.Allocate(256, 256)
	require.NoError(t, err)
	require.Equal(t, first.Page, second.Page)
	require.Equal(t, 256, second.Offset)

	page, ok := allocator.PageMemory(first.Page)
	require.True(t, ok)
	require.NotNil(t, page.(*Page).Buffer())

	require.NoError(t, allocator.MarkDereferenced(first.Page))
	require.NoError(t, allocator.MarkDereferenced(second.Page))

	allocator.FenceCommittedPages(queue)
	require.Equal(t, 1, allocator.PendingPageCount())

	// Destroy waits for the pending page's fence before releasing it
	require.NoError(t, allocator.Destroy())
}

func TestVulkanFenceCounter(t *testing.T) {
	app := createApplication(t, "TestVulkanFenceCounter")
	defer app.destroy(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	device, err := NewDevice(logger, app.physicalDevice, app.device, DeviceOptions{})
	require.NoError(t, err)
	queue := NewQueue(logger, app.queue)

	fence, err := device.CreateFence()
	require.NoError(t, err)
	require.Equal(t, uint64(0), fence.CompletedValue())

	queue.RequestSignal(fence, 1)
	queue.RequestSignal(fence, 2)
	require.NoError(t, fence.(*Fence).WaitForValue(2))
	require.Equal(t, uint64(2), fence.CompletedValue())

	// Binary fences are recycled once their values have been observed
	queue.RequestSignal(fence, 3)
	require.NoError(t, fence.(*Fence).WaitForValue(3))
	require.Equal(t, uint64(3), fence.CompletedValue())

	require.NoError(t, fence.Release())
	require.Error(t, fence.Release())
}
