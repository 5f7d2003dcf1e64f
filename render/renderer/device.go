package renderer

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"

	"github.com/vkngwrapper/minimal_render/app"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}
var deviceExtensions = []string{khr_swapchain.ExtensionName}

var ErrNoSuitableDevice = errors.New("failed to find a suitable GPU")

type DeviceOptions struct {
	ApplicationName string
	// Validation enables the Khronos validation layer. It requires the LunarG
	// Vulkan SDK to be installed.
	Validation bool
}

type queueFamilyIndices struct {
	graphicsFamily *int
	presentFamily  *int
}

func (i *queueFamilyIndices) isComplete() bool {
	return i.graphicsFamily != nil && i.presentFamily != nil
}

// Device owns the Vulkan instance, the logical device, its queues and the
// command pool every frame allocates from.
type Device struct {
	globalDriver   core1_0.GlobalDriver
	instanceDriver core1_0.CoreInstanceDriver
	deviceDriver   core1_0.CoreDeviceDriver

	debugDriver        ext_debug_utils.ExtensionDriver
	debugMessenger     ext_debug_utils.DebugUtilsMessenger
	surfaceExtension   khr_surface.ExtensionDriver
	swapchainExtension khr_swapchain.ExtensionDriver

	physicalDevice core1_0.PhysicalDevice
	graphicsFamily int
	presentFamily  int
	graphicsQueue  core1_0.Queue
	presentQueue   core1_0.Queue
	commandPool    core1_0.CommandPool

	passes *passCache
}

// NewDevice creates a device able to present to primary. The surface created
// for primary is returned so the caller can build its swapchain on it.
func NewDevice(primary *sdl.Window, opts DeviceOptions) (*Device, khr_surface.Surface, error) {
	d := &Device{}

	var err error
	d.globalDriver, err = core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, khr_surface.Surface{}, errors.Wrap(err, "load vulkan")
	}

	err = d.createInstance(primary, opts)
	if err != nil {
		d.Destroy()
		return nil, khr_surface.Surface{}, err
	}

	surface, err := d.CreateSurface(primary)
	if err != nil {
		d.Destroy()
		return nil, khr_surface.Surface{}, err
	}

	err = d.pickPhysicalDevice(surface)
	if err == nil {
		err = d.createLogicalDevice(surface)
	}
	if err == nil {
		err = d.createCommandPool()
	}
	if err != nil {
		d.surfaceExtension.DestroySurface(surface, nil)
		d.Destroy()
		return nil, khr_surface.Surface{}, err
	}

	d.passes = newPassCache(d.deviceDriver)
	app.Logger().Info("vulkan device ready",
		"graphics_family", d.graphicsFamily,
		"present_family", d.presentFamily,
		"validation", opts.Validation,
	)

	return d, surface, nil
}

func (d *Device) createInstance(window *sdl.Window, opts DeviceOptions) error {
	name := opts.ApplicationName
	if name == "" {
		name = "minimal_render"
	}

	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    name,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "minimal_render",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	sdlExtensions := window.VulkanGetInstanceExtensions()
	extensions, _, err := d.globalDriver.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "enumerate instance extensions")
	}

	for _, ext := range sdlExtensions {
		_, hasExt := extensions[ext]
		if !hasExt {
			return errors.Errorf("createInstance: cannot initialize sdl: missing extension %s", ext)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	if opts.Validation {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
	}

	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if opts.Validation {
		layers, _, err := d.globalDriver.AvailableLayers()
		if err != nil {
			return errors.Wrap(err, "enumerate layers")
		}

		for _, layer := range validationLayers {
			_, hasValidation := layers[layer]
			if !hasValidation {
				return errors.Errorf("createInstance: cannot add validation- layer %s not available- install LunarG Vulkan SDK", layer)
			}
			instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, layer)
		}

		instanceOptions.Next = debugMessengerOptions()
	}

	d.instanceDriver, _, err = d.globalDriver.CreateInstance(nil, instanceOptions)
	if err != nil {
		return errors.Wrap(err, "create instance")
	}

	d.surfaceExtension = khr_surface.CreateExtensionDriverFromCoreDriver(d.instanceDriver)

	if opts.Validation {
		d.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(d.instanceDriver)
		d.debugMessenger, _, err = d.debugDriver.CreateDebugUtilsMessenger(nil, debugMessengerOptions())
		if err != nil {
			return errors.Wrap(err, "create debug messenger")
		}
	}

	return nil
}

func debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    logDebug,
	}
}

func logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	level := slog.LevelWarn
	if (severity & ext_debug_utils.SeverityError) != 0 {
		level = slog.LevelError
	}
	app.Logger().Log(context.Background(), level, data.Message, "type", msgType, "severity", severity)
	return false
}

// CreateSurface creates a presentable surface for window.
func (d *Device) CreateSurface(window *sdl.Window) (khr_surface.Surface, error) {
	surface, err := vkng_sdl2.CreateSurface(d.instanceDriver.Instance(), d.surfaceExtension, window)
	if err != nil {
		return khr_surface.Surface{}, errors.Wrap(err, "create surface")
	}
	return surface, nil
}

func (d *Device) pickPhysicalDevice(surface khr_surface.Surface) error {
	physicalDevices, _, err := d.instanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return errors.Wrap(err, "enumerate physical devices")
	}

	for _, device := range physicalDevices {
		if d.isDeviceSuitable(device, surface) {
			d.physicalDevice = device
			break
		}
	}

	if !d.physicalDevice.Initialized() {
		return ErrNoSuitableDevice
	}

	return nil
}

func (d *Device) isDeviceSuitable(device core1_0.PhysicalDevice, surface khr_surface.Surface) bool {
	indices, err := d.findQueueFamilies(device, surface)
	if err != nil || !indices.isComplete() {
		return false
	}

	if !d.checkDeviceExtensionSupport(device) {
		return false
	}

	formats, _, err := d.surfaceExtension.GetPhysicalDeviceSurfaceFormats(surface, device)
	if err != nil {
		return false
	}
	presentModes, _, err := d.surfaceExtension.GetPhysicalDeviceSurfacePresentModes(surface, device)
	if err != nil {
		return false
	}

	return len(formats) > 0 && len(presentModes) > 0
}

func (d *Device) checkDeviceExtensionSupport(device core1_0.PhysicalDevice) bool {
	extensions, _, err := d.instanceDriver.EnumerateDeviceExtensionProperties(device)
	if err != nil {
		return false
	}

	for _, extension := range deviceExtensions {
		_, hasExtension := extensions[extension]
		if !hasExtension {
			return false
		}
	}

	return true
}

func (d *Device) findQueueFamilies(device core1_0.PhysicalDevice, surface khr_surface.Surface) (queueFamilyIndices, error) {
	indices := queueFamilyIndices{}
	queueFamilies := d.instanceDriver.GetPhysicalDeviceQueueFamilyProperties(device)

	for queueFamilyIdx, queueFamily := range queueFamilies {
		if (queueFamily.QueueFlags & core1_0.QueueGraphics) != 0 {
			indices.graphicsFamily = new(int)
			*indices.graphicsFamily = queueFamilyIdx
		}

		supported, _, err := d.surfaceExtension.GetPhysicalDeviceSurfaceSupport(surface, device, queueFamilyIdx)
		if err != nil {
			return indices, err
		}

		if supported {
			indices.presentFamily = new(int)
			*indices.presentFamily = queueFamilyIdx
		}

		if indices.isComplete() {
			break
		}
	}

	return indices, nil
}

func (d *Device) createLogicalDevice(surface khr_surface.Surface) error {
	indices, err := d.findQueueFamilies(d.physicalDevice, surface)
	if err != nil {
		return err
	}
	d.graphicsFamily = *indices.graphicsFamily
	d.presentFamily = *indices.presentFamily

	uniqueQueueFamilies := []int{d.graphicsFamily}
	if d.presentFamily != d.graphicsFamily {
		uniqueQueueFamilies = append(uniqueQueueFamilies, d.presentFamily)
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	for _, queueFamily := range uniqueQueueFamilies {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{1.0},
		})
	}

	extensionNames := append([]string(nil), deviceExtensions...)

	// Required by the portability subset to run on MoltenVK.
	extensions, _, err := d.instanceDriver.EnumerateDeviceExtensionProperties(d.physicalDevice)
	if err != nil {
		return err
	}
	if _, supported := extensions[khr_portability_subset.ExtensionName]; supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	d.deviceDriver, _, err = d.instanceDriver.CreateDevice(d.physicalDevice, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return errors.Wrap(err, "create logical device")
	}

	d.graphicsQueue = d.deviceDriver.GetQueue(d.graphicsFamily, 0)
	d.presentQueue = d.deviceDriver.GetQueue(d.presentFamily, 0)
	d.swapchainExtension = khr_swapchain.CreateExtensionDriverFromCoreDriver(d.deviceDriver)
	return nil
}

func (d *Device) createCommandPool() error {
	pool, _, err := d.deviceDriver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: d.graphicsFamily,
	})
	if err != nil {
		return errors.Wrap(err, "create command pool")
	}
	d.commandPool = pool
	return nil
}

// WaitIdle blocks until the GPU has finished all submitted work.
func (d *Device) WaitIdle() error {
	if d.deviceDriver == nil {
		return nil
	}
	_, err := d.deviceDriver.DeviceWaitIdle()
	return err
}

// Destroy releases everything the device owns. Surfaces and frames must be
// destroyed first.
func (d *Device) Destroy() {
	if d.passes != nil {
		d.passes.destroy()
		d.passes = nil
	}

	if d.commandPool.Initialized() {
		d.deviceDriver.DestroyCommandPool(d.commandPool, nil)
		d.commandPool = core1_0.CommandPool{}
	}

	if d.deviceDriver != nil {
		d.deviceDriver.DestroyDevice(nil)
		d.deviceDriver = nil
	}

	if d.debugMessenger.Initialized() {
		d.debugDriver.DestroyDebugUtilsMessenger(d.debugMessenger, nil)
		d.debugMessenger = ext_debug_utils.DebugUtilsMessenger{}
	}

	if d.instanceDriver != nil {
		d.instanceDriver.DestroyInstance(nil)
		d.instanceDriver = nil
	}
}
