package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/arsenal/vam"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/playground/asset"
)

const textureFormat = core1_0.FormatR8G8B8A8SRGB

// Texture is a sampled image created once from decoded pixels and never modified. Descriptors
// reference it but do not own it.
type Texture struct {
	device *Device

	image      core1_0.Image
	allocation *vam.Allocation
	view       core1_0.ImageView
	sampler    core1_0.Sampler

	width, height int
}

func (t *Texture) View() core1_0.ImageView  { return t.view }
func (t *Texture) Sampler() core1_0.Sampler { return t.sampler }
func (t *Texture) Width() int               { return t.width }
func (t *Texture) Height() int              { return t.height }

// LoadTexture uploads img to a device-local image through a staging buffer and leaves it in
// shader-read layout with a linear, anisotropic sampler.
func (d *Device) LoadTexture(img asset.Image) (*Texture, error) {
	if img.Width <= 0 || img.Height <= 0 || len(img.Pixels) != img.Width*img.Height*4 {
		return nil, errors.Newf("texture pixels do not match %dx%d RGBA", img.Width, img.Height)
	}

	t := &Texture{device: d, width: img.Width, height: img.Height}
	err := t.upload(img)
	if err != nil {
		return nil, errors.CombineErrors(err, t.Destroy())
	}

	d.logger.WithFields(logrus.Fields{
		"width":  img.Width,
		"height": img.Height,
	}).Debug("texture uploaded")
	return t, nil
}

func (t *Texture) upload(img asset.Image) (err error) {
	d := t.device

	staging, err := d.createBuffer(core1_0.BufferUsageTransferSrc, len(img.Pixels), vam.AllocationCreateInfo{
		Usage: vam.MemoryUsageAutoPreferHost,
		Flags: vam.AllocationCreateHostAccessSequentialWrite,
	})
	if err != nil {
		return errors.Wrap(err, "creating texture staging buffer")
	}
	defer func() {
		err = errors.CombineErrors(err, staging.Destroy())
	}()

	err = staging.Write(img.Pixels)
	if err != nil {
		return err
	}

	t.image, t.allocation, err = d.createImage(imageInfo{
		width:   img.Width,
		height:  img.Height,
		format:  textureFormat,
		usage:   core1_0.ImageUsageTransferDst | core1_0.ImageUsageSampled,
		samples: core1_0.Samples1,
	})
	if err != nil {
		return err
	}

	err = d.RunSingleTime(func(cmd core1_0.CommandBuffer) error {
		err := recordLayoutTransition(d.driver, cmd, t.image, core1_0.ImageLayoutUndefined, core1_0.ImageLayoutTransferDstOptimal)
		if err != nil {
			return err
		}

		err = d.driver.CmdCopyBufferToImage(cmd, staging.handle, t.image, core1_0.ImageLayoutTransferDstOptimal,
			core1_0.BufferImageCopy{
				ImageSubresource: core1_0.ImageSubresourceLayers{
					AspectMask:     core1_0.ImageAspectColor,
					MipLevel:       0,
					BaseArrayLayer: 0,
					LayerCount:     1,
				},
				ImageOffset: core1_0.Offset3D{X: 0, Y: 0, Z: 0},
				ImageExtent: core1_0.Extent3D{Width: img.Width, Height: img.Height, Depth: 1},
			},
		)
		if err != nil {
			return err
		}

		return recordLayoutTransition(d.driver, cmd, t.image, core1_0.ImageLayoutTransferDstOptimal, core1_0.ImageLayoutShaderReadOnlyOptimal)
	})
	if err != nil {
		return errors.Wrap(err, "uploading texture")
	}

	t.view, err = d.createImageView(t.image, textureFormat, core1_0.ImageAspectColor, 1)
	if err != nil {
		return err
	}

	sampler, res, err := d.driver.CreateSampler(nil, core1_0.SamplerCreateInfo{
		MagFilter:    core1_0.FilterLinear,
		MinFilter:    core1_0.FilterLinear,
		AddressModeU: core1_0.SamplerAddressModeRepeat,
		AddressModeV: core1_0.SamplerAddressModeRepeat,
		AddressModeW: core1_0.SamplerAddressModeRepeat,

		AnisotropyEnable: true,
		MaxAnisotropy:    d.properties.Limits.MaxSamplerAnisotropy,

		BorderColor: core1_0.BorderColorIntOpaqueBlack,

		MipmapMode: core1_0.SamplerMipmapModeLinear,
		MinLod:     0,
		MaxLod:     0,
	})
	if err != nil {
		return vkError(err, res, "creating texture sampler")
	}
	t.sampler = sampler
	return nil
}

// Destroy releases the sampler, view and image. The device must be idle.
func (t *Texture) Destroy() error {
	if t == nil {
		return nil
	}

	if t.sampler.Initialized() {
		t.device.driver.DestroySampler(t.sampler, nil)
		t.sampler = core1_0.Sampler{}
	}
	if t.view.Initialized() {
		t.device.driver.DestroyImageView(t.view, nil)
		t.view = core1_0.ImageView{}
	}
	if t.allocation == nil {
		return nil
	}

	err := t.allocation.DestroyImage(t.image)
	t.allocation = nil
	t.image = core1_0.Image{}
	return errors.Wrap(err, "destroying texture image")
}
