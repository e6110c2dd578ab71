package renderer

import (
	"io"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/arsenal/vam"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

var deviceExtensions = []string{khr_swapchain.ExtensionName}

// depthFormats is the depth attachment preference order.
var depthFormats = []core1_0.Format{
	core1_0.FormatD32SignedFloatS8UnsignedInt,
	core1_0.FormatD32SignedFloat,
	core1_0.FormatD24UnsignedNormalizedS8UnsignedInt,
	core1_0.FormatD16UnsignedNormalizedS8UnsignedInt,
	core1_0.FormatD16UnsignedNormalized,
}

type DeviceOptions struct {
	ApplicationName string
	// Validation enables the Khronos validation layer and routes its messages to Logger. When the
	// layer is not installed the device is created without it.
	Validation bool
	Logger     logrus.FieldLogger
}

type queueFamilies struct {
	graphics int
	present  int
}

type surfaceSupport struct {
	capabilities *khr_surface.SurfaceCapabilities
	formats      []khr_surface.SurfaceFormat
	presentModes []khr_surface.PresentMode
}

// Device owns the instance, the surface, the logical device and everything that lives exactly
// as long as they do: queues, the command pool and the memory allocator.
type Device struct {
	logger logrus.FieldLogger
	window *sdl.Window

	globalDriver   core1_0.GlobalDriver
	instanceDriver core1_0.CoreInstanceDriver
	driver         core1_0.CoreDeviceDriver

	debugDriver     ext_debug_utils.ExtensionDriver
	debugMessenger  ext_debug_utils.DebugUtilsMessenger
	surfaceDriver   khr_surface.ExtensionDriver
	surface         khr_surface.Surface
	swapchainDriver khr_swapchain.ExtensionDriver

	physicalDevice core1_0.PhysicalDevice
	properties     *core1_0.PhysicalDeviceProperties
	families       queueFamilies
	graphicsQueue  core1_0.Queue
	presentQueue   core1_0.Queue

	allocator   *vam.Allocator
	buffers     bufferSource
	commandPool core1_0.CommandPool
	depthFormat core1_0.Format
	maxSamples  core1_0.SampleCountFlags

	validation bool
	release    ReleaseStack
}

// NewDevice bootstraps Vulkan against window. On failure everything created so far is released.
func NewDevice(window *sdl.Window, opts DeviceOptions) (*Device, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.WithField("component", "device")
	}

	d := &Device{
		logger:     logger,
		window:     window,
		validation: opts.Validation,
	}

	err := d.init(opts.ApplicationName)
	if err != nil {
		return nil, errors.CombineErrors(err, d.release.Release())
	}
	return d, nil
}

func (d *Device) init(applicationName string) error {
	var err error
	d.globalDriver, err = core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return errors.Wrap(err, "loading vulkan")
	}

	steps := []func() error{
		func() error { return d.createInstance(applicationName) },
		d.setupDebugMessenger,
		d.createSurface,
		d.pickPhysicalDevice,
		d.createLogicalDevice,
		d.createAllocator,
		d.createCommandPool,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	d.logger.WithFields(logrus.Fields{
		"device":      d.properties.DeviceName,
		"graphics":    d.families.graphics,
		"present":     d.families.present,
		"depth":       d.depthFormat,
		"max_samples": sampleCountValue(d.maxSamples),
		"validation":  d.validation,
	}).Info("vulkan device ready")
	return nil
}

func (d *Device) createInstance(applicationName string) error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    applicationName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "playground",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	extensions, _, err := d.globalDriver.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "enumerating instance extensions")
	}

	for _, ext := range d.window.VulkanGetInstanceExtensions() {
		if _, ok := extensions[ext]; !ok {
			return errors.Newf("window system requires missing instance extension %s", ext)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	if _, ok := extensions[khr_portability_enumeration.ExtensionName]; ok {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if d.validation {
		layers, _, err := d.globalDriver.AvailableLayers()
		if err != nil {
			return errors.Wrap(err, "enumerating instance layers")
		}

		_, hasLayer := layers[validationLayer]
		_, hasDebugUtils := extensions[ext_debug_utils.ExtensionName]
		if hasLayer && hasDebugUtils {
			instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, validationLayer)
			instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
			instanceOptions.Next = d.debugMessengerOptions()
		} else {
			d.logger.WithField("layer", validationLayer).Warn("validation requested but not available, continuing without it")
			d.validation = false
		}
	}

	instanceDriver, res, err := d.globalDriver.CreateInstance(nil, instanceOptions)
	if err != nil {
		return vkError(err, res, "creating instance")
	}
	d.instanceDriver = instanceDriver
	d.release.PushFunc("instance", func() { d.instanceDriver.DestroyInstance(nil) })
	return nil
}

func (d *Device) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    d.logValidation,
	}
}

func (d *Device) logValidation(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	entry := d.logger.WithField("type", msgType)
	switch {
	case severity&ext_debug_utils.SeverityError != 0:
		entry.Error(data.Message)
	case severity&ext_debug_utils.SeverityWarning != 0:
		entry.Warn(data.Message)
	default:
		entry.Debug(data.Message)
	}
	return false
}

func (d *Device) setupDebugMessenger() error {
	if !d.validation {
		return nil
	}

	d.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(d.instanceDriver)
	messenger, res, err := d.debugDriver.CreateDebugUtilsMessenger(nil, d.debugMessengerOptions())
	if err != nil {
		return vkError(err, res, "creating debug messenger")
	}
	d.debugMessenger = messenger
	d.release.PushFunc("debug messenger", func() { d.debugDriver.DestroyDebugUtilsMessenger(d.debugMessenger, nil) })
	return nil
}

func (d *Device) createSurface() error {
	d.surfaceDriver = khr_surface.CreateExtensionDriverFromCoreDriver(d.instanceDriver)
	surface, err := vkng_sdl2.CreateSurface(d.instanceDriver.Instance(), d.surfaceDriver, d.window)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "creating window surface"), ErrSurfaceIncompatible)
	}
	d.surface = surface
	d.release.PushFunc("surface", func() { d.surfaceDriver.DestroySurface(d.surface, nil) })
	return nil
}

func (d *Device) pickPhysicalDevice() error {
	physicalDevices, res, err := d.instanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return vkError(err, res, "enumerating physical devices")
	}

	for _, physicalDevice := range physicalDevices {
		families, ok := d.isDeviceSuitable(physicalDevice)
		if !ok {
			continue
		}

		properties, err := d.instanceDriver.GetPhysicalDeviceProperties(physicalDevice)
		if err != nil {
			return errors.Wrap(err, "reading device properties")
		}

		depthFormat, ok := findSupportedFormat(depthFormats, core1_0.FormatFeatureDepthStencilAttachment, func(format core1_0.Format) core1_0.FormatFeatureFlags {
			return d.instanceDriver.GetPhysicalDeviceFormatProperties(physicalDevice, format).OptimalTilingFeatures
		})
		if !ok {
			continue
		}

		d.physicalDevice = physicalDevice
		d.properties = properties
		d.families = families
		d.depthFormat = depthFormat
		d.maxSamples = maxUsableSampleCount(properties.Limits.FramebufferColorSampleCounts & properties.Limits.FramebufferDepthSampleCounts)
		return nil
	}

	return errors.Wrapf(ErrNoSuitableDevice, "checked %d devices", len(physicalDevices))
}

func (d *Device) isDeviceSuitable(physicalDevice core1_0.PhysicalDevice) (queueFamilies, bool) {
	var flags []core1_0.QueueFlags
	for _, family := range d.instanceDriver.GetPhysicalDeviceQueueFamilyProperties(physicalDevice) {
		flags = append(flags, family.QueueFlags)
	}

	families, ok, err := findQueueFamilies(flags, func(index int) (bool, error) {
		supported, _, err := d.surfaceDriver.GetPhysicalDeviceSurfaceSupport(d.surface, physicalDevice, index)
		return supported, err
	})
	if err != nil || !ok {
		return families, false
	}

	extensions, _, err := d.instanceDriver.EnumerateDeviceExtensionProperties(physicalDevice)
	if err != nil {
		return families, false
	}
	for _, name := range deviceExtensions {
		if _, ok := extensions[name]; !ok {
			return families, false
		}
	}

	support, err := d.querySurfaceSupport(physicalDevice)
	if err != nil || len(support.formats) == 0 || len(support.presentModes) == 0 {
		return families, false
	}

	features := d.instanceDriver.GetPhysicalDeviceFeatures(physicalDevice)
	return families, features.SamplerAnisotropy
}

func (d *Device) querySurfaceSupport(physicalDevice core1_0.PhysicalDevice) (surfaceSupport, error) {
	var support surfaceSupport

	capabilities, res, err := d.surfaceDriver.GetPhysicalDeviceSurfaceCapabilities(d.surface, physicalDevice)
	if err != nil {
		return support, vkError(err, res, "querying surface capabilities")
	}
	support.capabilities = capabilities

	support.formats, res, err = d.surfaceDriver.GetPhysicalDeviceSurfaceFormats(d.surface, physicalDevice)
	if err != nil {
		return support, vkError(err, res, "querying surface formats")
	}

	support.presentModes, res, err = d.surfaceDriver.GetPhysicalDeviceSurfacePresentModes(d.surface, physicalDevice)
	if err != nil {
		return support, vkError(err, res, "querying present modes")
	}
	return support, nil
}

func (d *Device) createLogicalDevice() error {
	uniqueFamilies := []int{d.families.graphics}
	if d.families.present != d.families.graphics {
		uniqueFamilies = append(uniqueFamilies, d.families.present)
	}

	var queueInfos []core1_0.DeviceQueueCreateInfo
	for _, family := range uniqueFamilies {
		queueInfos = append(queueInfos, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: family,
			QueuePriorities:  []float32{1.0},
		})
	}

	extensionNames := append([]string(nil), deviceExtensions...)
	extensions, res, err := d.instanceDriver.EnumerateDeviceExtensionProperties(d.physicalDevice)
	if err != nil {
		return vkError(err, res, "enumerating device extensions")
	}
	if _, ok := extensions[khr_portability_subset.ExtensionName]; ok {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	driver, res, err := d.instanceDriver.CreateDevice(d.physicalDevice, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos: queueInfos,
		EnabledFeatures: &core1_0.PhysicalDeviceFeatures{
			SamplerAnisotropy: true,
		},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return vkError(err, res, "creating logical device")
	}
	d.driver = driver
	d.release.PushFunc("logical device", func() { d.driver.DestroyDevice(nil) })

	d.graphicsQueue = d.driver.GetQueue(d.families.graphics, 0)
	d.presentQueue = d.driver.GetQueue(d.families.present, 0)
	d.swapchainDriver = khr_swapchain.CreateExtensionDriverFromCoreDriver(d.driver)
	return nil
}

func (d *Device) createAllocator() error {
	logger, closer := slogBridge(d.logger)
	d.release.Push("allocator log", closer.Close)

	allocator, err := vam.New(logger, d.driver, d.physicalDevice, vam.CreateOptions{})
	if err != nil {
		return errors.Wrap(err, "creating memory allocator")
	}
	d.allocator = allocator
	d.buffers = allocatorBuffers{allocator: allocator}
	d.release.Push("allocator", d.allocator.Destroy)
	return nil
}

func (d *Device) createCommandPool() error {
	pool, res, err := d.driver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: d.families.graphics,
		Flags:            core1_0.CommandPoolCreateResetBuffer,
	})
	if err != nil {
		return vkError(err, res, "creating command pool")
	}
	d.commandPool = pool
	d.release.PushFunc("command pool", func() { d.driver.DestroyCommandPool(d.commandPool, nil) })
	return nil
}

func (d *Device) Driver() core1_0.CoreDeviceDriver               { return d.driver }
func (d *Device) Allocator() *vam.Allocator                      { return d.allocator }
func (d *Device) PhysicalDevice() core1_0.PhysicalDevice         { return d.physicalDevice }
func (d *Device) Properties() *core1_0.PhysicalDeviceProperties  { return d.properties }
func (d *Device) GraphicsQueue() core1_0.Queue                   { return d.graphicsQueue }
func (d *Device) PresentQueue() core1_0.Queue                    { return d.presentQueue }
func (d *Device) CommandPool() core1_0.CommandPool               { return d.commandPool }
func (d *Device) DepthFormat() core1_0.Format                    { return d.depthFormat }
func (d *Device) MaxSamples() core1_0.SampleCountFlags           { return d.maxSamples }
func (d *Device) SwapchainDriver() khr_swapchain.ExtensionDriver { return d.swapchainDriver }

// DrawableSize is the window's surface size in pixels, which can differ from the window size
// on high density displays.
func (d *Device) DrawableSize() (int, int) {
	width, height := d.window.VulkanGetDrawableSize()
	return int(width), int(height)
}

// WaitIdle blocks until the device has finished all submitted work.
func (d *Device) WaitIdle() error {
	res, err := d.driver.DeviceWaitIdle()
	return vkError(err, res, "waiting for device idle")
}

// Destroy releases the device and instance. Every object created from the device must already
// be destroyed.
func (d *Device) Destroy() error {
	return d.release.Release()
}

// findQueueFamilies picks a graphics family and a present family, preferring a single family
// that does both.
func findQueueFamilies(flags []core1_0.QueueFlags, supportsPresent func(index int) (bool, error)) (queueFamilies, bool, error) {
	families := queueFamilies{graphics: -1, present: -1}

	for index, familyFlags := range flags {
		graphics := familyFlags&core1_0.QueueGraphics != 0
		present, err := supportsPresent(index)
		if err != nil {
			return families, false, err
		}

		if graphics && present {
			return queueFamilies{graphics: index, present: index}, true, nil
		}
		if graphics && families.graphics < 0 {
			families.graphics = index
		}
		if present && families.present < 0 {
			families.present = index
		}
	}

	return families, families.graphics >= 0 && families.present >= 0, nil
}

func findSupportedFormat(candidates []core1_0.Format, required core1_0.FormatFeatureFlags, features func(core1_0.Format) core1_0.FormatFeatureFlags) (core1_0.Format, bool) {
	for _, format := range candidates {
		if features(format)&required == required {
			return format, true
		}
	}
	return 0, false
}

func hasStencilComponent(format core1_0.Format) bool {
	switch format {
	case core1_0.FormatD32SignedFloatS8UnsignedInt,
		core1_0.FormatD24UnsignedNormalizedS8UnsignedInt,
		core1_0.FormatD16UnsignedNormalizedS8UnsignedInt:
		return true
	}
	return false
}

var sampleCounts = []core1_0.SampleCountFlags{
	core1_0.Samples64,
	core1_0.Samples32,
	core1_0.Samples16,
	core1_0.Samples8,
	core1_0.Samples4,
	core1_0.Samples2,
}

func maxUsableSampleCount(counts core1_0.SampleCountFlags) core1_0.SampleCountFlags {
	for _, count := range sampleCounts {
		if counts&count != 0 {
			return count
		}
	}
	return core1_0.Samples1
}

// sampleCountValue converts a sample count bit to the number of samples it stands for.
func sampleCountValue(samples core1_0.SampleCountFlags) int {
	if samples <= 0 {
		return 1
	}
	return int(samples)
}

type levelWriter interface {
	WriterLevel(level logrus.Level) *io.PipeWriter
}

// slogBridge adapts logger for libraries that log through slog. Records land at debug level.
func slogBridge(logger logrus.FieldLogger) (*slog.Logger, io.Closer) {
	if writerLogger, ok := logger.(levelWriter); ok {
		writer := writerLogger.WriterLevel(logrus.DebugLevel)
		return slog.New(slog.NewTextHandler(writer, nil)), writer
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil)), io.NopCloser(nil)
}
