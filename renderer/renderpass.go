package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// RenderPass is one generation of render targets: the render pass, its color and depth
// attachments, and a framebuffer per swapchain image. With a single sample the swapchain image
// is the color attachment; with more, a multisampled color image resolves into it.
type RenderPass struct {
	device *Device

	handle  core1_0.RenderPass
	samples core1_0.SampleCountFlags
	extent  core1_0.Extent2D

	color        *attachment
	depth        *attachment
	framebuffers []core1_0.Framebuffer

	release ReleaseStack
}

func renderPassCreateInfo(colorFormat, depthFormat core1_0.Format, samples core1_0.SampleCountFlags) core1_0.RenderPassCreateInfo {
	multisampled := samples > core1_0.Samples1

	color := core1_0.AttachmentDescription{
		Format:         colorFormat,
		Samples:        samples,
		LoadOp:         core1_0.AttachmentLoadOpClear,
		StoreOp:        core1_0.AttachmentStoreOpStore,
		StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
		StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
		InitialLayout:  core1_0.ImageLayoutUndefined,
		FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
	}
	if multisampled {
		color.FinalLayout = core1_0.ImageLayoutColorAttachmentOptimal
	}

	depth := core1_0.AttachmentDescription{
		Format:         depthFormat,
		Samples:        samples,
		LoadOp:         core1_0.AttachmentLoadOpClear,
		StoreOp:        core1_0.AttachmentStoreOpDontCare,
		StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
		StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
		InitialLayout:  core1_0.ImageLayoutUndefined,
		FinalLayout:    core1_0.ImageLayoutDepthStencilAttachmentOptimal,
	}

	subpass := core1_0.SubpassDescription{
		PipelineBindPoint: core1_0.PipelineBindPointGraphics,
		ColorAttachments: []core1_0.AttachmentReference{
			{
				Attachment: 0,
				Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
			},
		},
		DepthStencilAttachment: &core1_0.AttachmentReference{
			Attachment: 1,
			Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	attachments := []core1_0.AttachmentDescription{color, depth}
	if multisampled {
		attachments = append(attachments, core1_0.AttachmentDescription{
			Format:         colorFormat,
			Samples:        core1_0.Samples1,
			LoadOp:         core1_0.AttachmentLoadOpDontCare,
			StoreOp:        core1_0.AttachmentStoreOpStore,
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  core1_0.ImageLayoutUndefined,
			FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
		})
		subpass.ResolveAttachments = []core1_0.AttachmentReference{
			{
				Attachment: 2,
				Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
			},
		}
	}

	return core1_0.RenderPassCreateInfo{
		Attachments: attachments,
		Subpasses:   []core1_0.SubpassDescription{subpass},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageEarlyFragmentTests,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageEarlyFragmentTests,
				DstAccessMask: core1_0.AccessColorAttachmentWrite | core1_0.AccessDepthStencilAttachmentWrite,
			},
		},
	}
}

// framebufferAttachments orders views to match renderPassCreateInfo.
func framebufferAttachments(color, depth, swapchainView core1_0.ImageView, multisampled bool) []core1_0.ImageView {
	if multisampled {
		return []core1_0.ImageView{color, depth, swapchainView}
	}
	return []core1_0.ImageView{swapchainView, depth}
}

// CreateRenderPass builds the render pass and framebuffers for swapChain at the given sample
// count. On failure everything created so far is released.
func (d *Device) CreateRenderPass(swapChain *SwapChain, samples core1_0.SampleCountFlags) (*RenderPass, error) {
	rp := &RenderPass{
		device:  d,
		samples: samples,
		extent:  swapChain.Extent(),
	}

	err := rp.init(swapChain)
	if err != nil {
		return nil, errors.CombineErrors(err, rp.Destroy())
	}
	return rp, nil
}

func (rp *RenderPass) init(swapChain *SwapChain) error {
	d := rp.device
	multisampled := rp.samples > core1_0.Samples1

	handle, res, err := d.driver.CreateRenderPass(nil, renderPassCreateInfo(swapChain.Format(), d.depthFormat, rp.samples))
	if err != nil {
		return vkError(err, res, "creating render pass with %d samples", sampleCountValue(rp.samples))
	}
	rp.handle = handle
	rp.release.PushFunc("render pass", func() { d.driver.DestroyRenderPass(rp.handle, nil) })

	if multisampled {
		rp.color, err = d.createAttachment(imageInfo{
			width:   rp.extent.Width,
			height:  rp.extent.Height,
			format:  swapChain.Format(),
			usage:   core1_0.ImageUsageTransientAttachment | core1_0.ImageUsageColorAttachment,
			samples: rp.samples,
		}, core1_0.ImageAspectColor)
		if err != nil {
			return errors.Wrap(err, "creating color attachment")
		}
		rp.release.Push("color attachment", rp.color.Destroy)
	}

	rp.depth, err = d.createAttachment(imageInfo{
		width:   rp.extent.Width,
		height:  rp.extent.Height,
		format:  d.depthFormat,
		usage:   core1_0.ImageUsageDepthStencilAttachment,
		samples: rp.samples,
	}, core1_0.ImageAspectDepth)
	if err != nil {
		return errors.Wrap(err, "creating depth attachment")
	}
	rp.release.Push("depth attachment", rp.depth.Destroy)

	var colorView core1_0.ImageView
	if rp.color != nil {
		colorView = rp.color.view
	}

	for _, view := range swapChain.ImageViews() {
		framebuffer, res, err := d.driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass:  rp.handle,
			Layers:      1,
			Attachments: framebufferAttachments(colorView, rp.depth.view, view, multisampled),
			Width:       rp.extent.Width,
			Height:      rp.extent.Height,
		})
		if err != nil {
			return vkError(err, res, "creating framebuffer")
		}
		rp.framebuffers = append(rp.framebuffers, framebuffer)
		rp.release.PushFunc("framebuffer", func() { d.driver.DestroyFramebuffer(framebuffer, nil) })
	}
	return nil
}

func (rp *RenderPass) Handle() core1_0.RenderPass                { return rp.handle }
func (rp *RenderPass) Samples() core1_0.SampleCountFlags         { return rp.samples }
func (rp *RenderPass) Extent() core1_0.Extent2D                  { return rp.extent }
func (rp *RenderPass) Framebuffer(index int) core1_0.Framebuffer { return rp.framebuffers[index] }

// Destroy releases framebuffers, attachments and the render pass. The device must be idle.
func (rp *RenderPass) Destroy() error {
	if rp == nil {
		return nil
	}
	rp.framebuffers = nil
	return rp.release.Release()
}
