package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/vam"
	"github.com/vkngwrapper/core/v3/core1_0"
)

type imageInfo struct {
	width, height int
	format        core1_0.Format
	usage         core1_0.ImageUsageFlags
	samples       core1_0.SampleCountFlags
	// dedicated requests its own device memory block, which suits render targets that are
	// recreated wholesale with the swapchain.
	dedicated bool
}

func (d *Device) createImage(info imageInfo) (core1_0.Image, *vam.Allocation, error) {
	var flags vam.AllocationCreateFlags
	if info.dedicated {
		flags |= vam.AllocationCreateDedicatedMemory
	}

	allocation := new(vam.Allocation)
	image, res, err := d.allocator.CreateImage(core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  info.width,
			Height: info.height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        info.format,
		Tiling:        core1_0.ImageTilingOptimal,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         info.usage,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       info.samples,
	}, vam.AllocationCreateInfo{
		Usage: vam.MemoryUsageAutoPreferDevice,
		Flags: flags,
	}, allocation)
	if err != nil {
		return core1_0.Image{}, nil, vkError(err, res, "creating %dx%d image", info.width, info.height)
	}
	return image, allocation, nil
}

func (d *Device) createImageView(image core1_0.Image, format core1_0.Format, aspect core1_0.ImageAspectFlags, mipLevels int) (core1_0.ImageView, error) {
	view, res, err := d.driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     mipLevels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		return core1_0.ImageView{}, vkError(err, res, "creating image view")
	}
	return view, nil
}

type layoutTransition struct {
	srcAccess, dstAccess core1_0.AccessFlags
	srcStage, dstStage   core1_0.PipelineStageFlags
}

// transitionFor returns the barrier masks for the two layout changes a texture upload needs.
func transitionFor(oldLayout, newLayout core1_0.ImageLayout) (layoutTransition, error) {
	switch {
	case oldLayout == core1_0.ImageLayoutUndefined && newLayout == core1_0.ImageLayoutTransferDstOptimal:
		return layoutTransition{
			dstAccess: core1_0.AccessTransferWrite,
			srcStage:  core1_0.PipelineStageTopOfPipe,
			dstStage:  core1_0.PipelineStageTransfer,
		}, nil
	case oldLayout == core1_0.ImageLayoutTransferDstOptimal && newLayout == core1_0.ImageLayoutShaderReadOnlyOptimal:
		return layoutTransition{
			srcAccess: core1_0.AccessTransferWrite,
			dstAccess: core1_0.AccessShaderRead,
			srcStage:  core1_0.PipelineStageTransfer,
			dstStage:  core1_0.PipelineStageFragmentShader,
		}, nil
	}
	return layoutTransition{}, errors.Newf("unsupported layout transition: %s -> %s", oldLayout, newLayout)
}

func recordLayoutTransition(driver core1_0.DeviceDriver, buffer core1_0.CommandBuffer, image core1_0.Image, oldLayout, newLayout core1_0.ImageLayout) error {
	transition, err := transitionFor(oldLayout, newLayout)
	if err != nil {
		return err
	}

	return driver.CmdPipelineBarrier(buffer, transition.srcStage, transition.dstStage, 0, nil, nil, []core1_0.ImageMemoryBarrier{
		{
			OldLayout:           oldLayout,
			NewLayout:           newLayout,
			SrcQueueFamilyIndex: -1,
			DstQueueFamilyIndex: -1,
			Image:               image,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			SrcAccessMask: transition.srcAccess,
			DstAccessMask: transition.dstAccess,
		},
	})
}

// attachment is a render target image owned by a render pass generation.
type attachment struct {
	device *Device

	image      core1_0.Image
	view       core1_0.ImageView
	allocation *vam.Allocation
}

func (d *Device) createAttachment(info imageInfo, aspect core1_0.ImageAspectFlags) (*attachment, error) {
	info.dedicated = true

	image, allocation, err := d.createImage(info)
	if err != nil {
		return nil, err
	}
	a := &attachment{device: d, image: image, allocation: allocation}

	a.view, err = d.createImageView(image, info.format, aspect, 1)
	if err != nil {
		return nil, errors.CombineErrors(err, a.Destroy())
	}
	return a, nil
}

func (a *attachment) Destroy() error {
	if a == nil {
		return nil
	}

	if a.view.Initialized() {
		a.device.driver.DestroyImageView(a.view, nil)
		a.view = core1_0.ImageView{}
	}

	if a.allocation == nil {
		return nil
	}
	err := a.allocation.DestroyImage(a.image)
	a.allocation = nil
	return errors.Wrap(err, "destroying attachment image")
}
