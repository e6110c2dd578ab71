package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/playground/engine"
)

// anyExtent is the CurrentExtent width a surface reports when the swapchain decides its size.
const anyExtent = -1

// SwapChain is one generation of presentable images. It is never resized in place: a stale
// swapchain is destroyed and a new one created.
type SwapChain struct {
	device *Device

	handle      khr_swapchain.Swapchain
	images      []core1_0.Image
	views       []core1_0.ImageView
	format      core1_0.Format
	extent      core1_0.Extent2D
	presentMode khr_surface.PresentMode
}

// PresentModeFromName maps a configured present mode onto its Vulkan value. Unknown names map
// to FIFO, which every device supports.
func PresentModeFromName(name string) khr_surface.PresentMode {
	switch name {
	case "mailbox":
		return khr_surface.PresentModeMailbox
	case "immediate":
		return khr_surface.PresentModeImmediate
	}
	return khr_surface.PresentModeFIFO
}

// CreateSwapChain builds a swapchain for the current surface state. The extent comes from the
// surface capabilities, or from the drawable size when the surface leaves it to the swapchain.
// The caller must idle-wait and destroy any previous swapchain first.
func (d *Device) CreateSwapChain(preferred khr_surface.PresentMode) (*SwapChain, error) {
	support, err := d.querySurfaceSupport(d.physicalDevice)
	if err != nil {
		return nil, errors.Mark(err, ErrSurfaceIncompatible)
	}
	if len(support.formats) == 0 || len(support.presentModes) == 0 {
		return nil, errors.Wrap(ErrSurfaceIncompatible, "surface reports no formats or present modes")
	}

	width, height := d.DrawableSize()
	surfaceFormat := chooseSurfaceFormat(support.formats)
	presentMode := choosePresentMode(preferred, support.presentModes)
	extent := chooseExtent(support.capabilities, width, height)
	imageCount := chooseImageCount(support.capabilities)

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int
	if d.families.graphics != d.families.present {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = []int{d.families.graphics, d.families.present}
	}

	handle, res, err := d.swapchainDriver.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: d.surface,

		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   support.capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
	})
	if err != nil {
		return nil, vkError(err, res, "creating swapchain %dx%d", extent.Width, extent.Height)
	}

	s := &SwapChain{
		device:      d,
		handle:      handle,
		format:      surfaceFormat.Format,
		extent:      extent,
		presentMode: presentMode,
	}

	err = s.createImageViews()
	if err != nil {
		s.Destroy()
		return nil, err
	}

	d.logger.WithFields(logrus.Fields{
		"extent":       extent,
		"images":       len(s.images),
		"present_mode": presentMode,
		"format":       surfaceFormat.Format,
	}).Debug("swapchain created")
	return s, nil
}

func (s *SwapChain) createImageViews() error {
	images, res, err := s.device.swapchainDriver.GetSwapchainImages(s.handle)
	if err != nil {
		return vkError(err, res, "reading swapchain images")
	}
	s.images = images

	for _, image := range images {
		view, err := s.device.createImageView(image, s.format, core1_0.ImageAspectColor, 1)
		if err != nil {
			return err
		}
		s.views = append(s.views, view)
	}
	return nil
}

func (s *SwapChain) Extent() core1_0.Extent2D             { return s.extent }
func (s *SwapChain) Format() core1_0.Format               { return s.format }
func (s *SwapChain) PresentMode() khr_surface.PresentMode { return s.presentMode }
func (s *SwapChain) ImageCount() int                      { return len(s.images) }
func (s *SwapChain) ImageViews() []core1_0.ImageView      { return s.views }
func (s *SwapChain) Handle() khr_swapchain.Swapchain      { return s.handle }

// AcquireNextImage waits for the next presentable image. An out of date swapchain is reported
// as a status, not an error.
func (s *SwapChain) AcquireNextImage(signal core1_0.Semaphore) (int, engine.FrameStatus, error) {
	index, res, err := s.device.swapchainDriver.AcquireNextImage(s.handle, common.NoTimeout, &signal, nil)
	return acquireResult(index, res, err)
}

// acquireResult maps the driver's answer to an acquire. An out-of-date swapchain yields no image;
// a suboptimal one still yields a usable image.
func acquireResult(index int, res common.VkResult, err error) (int, engine.FrameStatus, error) {
	switch status, _ := swapchainStatus(res); status {
	case engine.FrameOutOfDate:
		return -1, status, nil
	case engine.FrameSuboptimal:
		return index, status, nil
	}
	if err != nil {
		return -1, engine.FrameOK, vkError(err, res, "acquiring swapchain image")
	}
	return index, engine.FrameOK, nil
}

// Present queues image index for presentation once wait is signalled.
func (s *SwapChain) Present(queue core1_0.Queue, index int, wait core1_0.Semaphore) (engine.FrameStatus, error) {
	res, err := s.device.swapchainDriver.QueuePresent(queue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{wait},
		Swapchains:     []khr_swapchain.Swapchain{s.handle},
		ImageIndices:   []int{index},
	})
	if status, ok := swapchainStatus(res); ok {
		return status, nil
	}
	if err != nil {
		return engine.FrameOK, vkError(err, res, "presenting image %d", index)
	}
	return engine.FrameOK, nil
}

func (s *SwapChain) Destroy() {
	if s == nil {
		return
	}

	for _, view := range s.views {
		s.device.driver.DestroyImageView(view, nil)
	}
	s.views = nil
	s.images = nil

	if s.handle.Initialized() {
		s.device.swapchainDriver.DestroySwapchain(s.handle, nil)
		s.handle = khr_swapchain.Swapchain{}
	}
}

func swapchainStatus(res common.VkResult) (engine.FrameStatus, bool) {
	switch res {
	case khr_swapchain.VKErrorOutOfDate:
		return engine.FrameOutOfDate, true
	case khr_swapchain.VKSuboptimal:
		return engine.FrameSuboptimal, true
	}
	return engine.FrameOK, false
}

func chooseSurfaceFormat(available []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range available {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}
	return available[0]
}

func choosePresentMode(preferred khr_surface.PresentMode, available []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, mode := range available {
		if mode == preferred {
			return mode
		}
	}
	return khr_surface.PresentModeFIFO
}

// chooseExtent returns the surface's current extent, or the drawable size clamped to the
// surface limits when the surface reports anyExtent.
func chooseExtent(capabilities *khr_surface.SurfaceCapabilities, width, height int) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != anyExtent {
		return capabilities.CurrentExtent
	}

	return core1_0.Extent2D{
		Width:  clamp(width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

func chooseImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	count := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && count > capabilities.MaxImageCount {
		count = capabilities.MaxImageCount
	}
	return count
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
