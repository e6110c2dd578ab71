package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"

	"github.com/vkngwrapper/playground/engine"
)

type ContextOptions struct {
	PresentMode khr_surface.PresentMode
	// MSAA starts with multisampling at the device's maximum sample count.
	MSAA bool
	// PipelineCachePath is where compiled pipeline state is loaded from and saved to. Empty
	// disables the cache.
	PipelineCachePath string
	Logger            logrus.FieldLogger
}

// RenderContext owns everything between the device and the scene: the swapchain, the render
// pass generation built on it, per-image command buffers and frame semaphores. It takes ownership
// of the device and destroys it last.
//
// There is one frame in flight. RenderStart idle-waits the device, so command buffers and the
// uniform buffer are never reused while the GPU reads them.
type RenderContext struct {
	device *Device
	logger logrus.FieldLogger

	presentMode khr_surface.PresentMode
	msaa        bool

	swapChain      *SwapChain
	renderPass     *RenderPass
	commandBuffers []core1_0.CommandBuffer
	imageIndex     int

	imageAvailable core1_0.Semaphore
	renderFinished core1_0.Semaphore
	pipelineCache  *PipelineCache

	targets   renderTargets
	release   ReleaseStack
	destroyed bool
}

// renderTargets recreates the swapchain-dependent objects of a context. The device is idle
// whenever either method runs.
type renderTargets interface {
	recreateSwapChain() error
	recreateRenderPass() error
}

var _ engine.Context = (*RenderContext)(nil)

func NewRenderContext(device *Device, opts ContextOptions) (*RenderContext, error) {
	logger := opts.Logger
	if logger == nil {
		logger = device.logger
	}

	c := &RenderContext{
		device:      device,
		logger:      logger.WithField("component", "context"),
		presentMode: opts.PresentMode,
		msaa:        opts.MSAA,
	}
	c.targets = c

	err := c.init(opts.PipelineCachePath)
	if err != nil {
		return nil, errors.CombineErrors(err, c.Destroy())
	}
	return c, nil
}

func (c *RenderContext) init(cachePath string) error {
	var err error
	c.imageAvailable, err = c.createSemaphore("image available")
	if err != nil {
		return err
	}
	c.renderFinished, err = c.createSemaphore("render finished")
	if err != nil {
		return err
	}

	if cachePath != "" {
		c.pipelineCache, err = c.device.LoadPipelineCache(cachePath)
		if err != nil {
			return err
		}
		c.release.PushFunc("pipeline cache", c.pipelineCache.Destroy)
		c.release.Push("pipeline cache data", c.pipelineCache.Save)
	}

	return c.createSwapChainTargets()
}

func (c *RenderContext) createSemaphore(name string) (core1_0.Semaphore, error) {
	driver := c.device.driver
	semaphore, res, err := driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return core1_0.Semaphore{}, vkError(err, res, "creating %s semaphore", name)
	}
	c.release.PushFunc(name+" semaphore", func() { driver.DestroySemaphore(semaphore, nil) })
	return semaphore, nil
}

func (c *RenderContext) samples() core1_0.SampleCountFlags {
	if c.msaa {
		return c.device.MaxSamples()
	}
	return core1_0.Samples1
}

func (c *RenderContext) createSwapChainTargets() error {
	var err error
	c.swapChain, err = c.device.CreateSwapChain(c.presentMode)
	if err != nil {
		return err
	}

	c.commandBuffers, err = c.device.allocateCommandBuffers(c.swapChain.ImageCount())
	if err != nil {
		return err
	}

	return c.createRenderPass()
}

func (c *RenderContext) createRenderPass() error {
	var err error
	c.renderPass, err = c.device.CreateRenderPass(c.swapChain, c.samples())
	return err
}

func (c *RenderContext) destroyRenderPass() error {
	err := c.renderPass.Destroy()
	c.renderPass = nil
	return err
}

func (c *RenderContext) destroySwapChainTargets() error {
	err := c.destroyRenderPass()

	if len(c.commandBuffers) > 0 {
		c.device.driver.FreeCommandBuffers(c.commandBuffers...)
		c.commandBuffers = nil
	}

	c.swapChain.Destroy()
	c.swapChain = nil
	return err
}

func (c *RenderContext) DrawableSize() (int, int) { return c.device.DrawableSize() }

// RenderStart waits for the previous frame to retire and acquires the next swapchain image.
func (c *RenderContext) RenderStart() (engine.FrameStatus, error) {
	err := c.device.WaitIdle()
	if err != nil {
		return engine.FrameOK, err
	}

	index, status, err := c.swapChain.AcquireNextImage(c.imageAvailable)
	if err != nil || status == engine.FrameOutOfDate {
		return status, err
	}
	c.imageIndex = index
	return status, nil
}

func (c *RenderContext) Submit() error {
	res, err := c.device.driver.QueueSubmit(c.device.graphicsQueue, nil, core1_0.SubmitInfo{
		WaitSemaphores:   []core1_0.Semaphore{c.imageAvailable},
		WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
		CommandBuffers:   []core1_0.CommandBuffer{c.CommandBuffer()},
		SignalSemaphores: []core1_0.Semaphore{c.renderFinished},
	})
	return vkError(err, res, "submitting frame")
}

func (c *RenderContext) Present() (engine.FrameStatus, error) {
	return c.swapChain.Present(c.device.presentQueue, c.imageIndex, c.renderFinished)
}

// Rebuild idle-waits the device, then recreates what target names. A swapchain rebuild
// includes the render pass; shader rebuilds need nothing from the context.
func (c *RenderContext) Rebuild(target engine.RebuildTarget) error {
	err := c.device.WaitIdle()
	if err != nil {
		return err
	}

	switch {
	case target&engine.RebuildSwapChain != 0:
		return c.targets.recreateSwapChain()
	case target&engine.RebuildMultisample != 0:
		return c.targets.recreateRenderPass()
	}
	return nil
}

func (c *RenderContext) recreateSwapChain() error {
	err := c.destroySwapChainTargets()
	if err != nil {
		return err
	}
	err = c.createSwapChainTargets()
	if err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"extent":  c.swapChain.Extent(),
		"samples": c.SampleCount(),
	}).Debug("swapchain rebuilt")
	return nil
}

func (c *RenderContext) recreateRenderPass() error {
	err := c.destroyRenderPass()
	if err != nil {
		return err
	}
	err = c.createRenderPass()
	if err != nil {
		return err
	}

	c.logger.WithField("samples", c.SampleCount()).Debug("render pass rebuilt")
	return nil
}

// ToggleMSAA flips multisampling. The new sample count applies from the next multisample
// rebuild.
func (c *RenderContext) ToggleMSAA() int {
	c.msaa = !c.msaa
	return sampleCountValue(c.samples())
}

// SampleCount is the sample count of the current render pass generation.
func (c *RenderContext) SampleCount() int { return sampleCountValue(c.renderPass.Samples()) }

func (c *RenderContext) WaitIdle() error { return c.device.WaitIdle() }

func (c *RenderContext) Device() *Device                      { return c.device }
func (c *RenderContext) SwapChain() *SwapChain                { return c.swapChain }
func (c *RenderContext) RenderPass() *RenderPass              { return c.renderPass }
func (c *RenderContext) PipelineCache() *PipelineCache        { return c.pipelineCache }
func (c *RenderContext) CommandBuffer() core1_0.CommandBuffer { return c.commandBuffers[c.imageIndex] }
func (c *RenderContext) Framebuffer() core1_0.Framebuffer     { return c.renderPass.Framebuffer(c.imageIndex) }

// Destroy tears down the swapchain targets, the context objects and finally the device, then
// reports what the allocator still holds. Scene resources must already be destroyed.
func (c *RenderContext) Destroy() error {
	if c.destroyed {
		return nil
	}
	c.destroyed = true

	err := c.destroySwapChainTargets()
	err = errors.CombineErrors(err, c.release.Release())

	report := c.device.MemoryReport()
	c.logger.WithField("memory", string(report.JSON())).Info("allocator report")
	err = errors.CombineErrors(err, report.LeakCheck())

	return errors.CombineErrors(err, c.device.Destroy())
}
