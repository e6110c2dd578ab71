package renderer

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"golang.org/x/sync/errgroup"

	"github.com/vkngwrapper/playground/asset"
)

// textureResource is what the cache holds and destroys. *Texture satisfies it.
type textureResource interface {
	Destroy() error
}

type textureUploader interface {
	UploadTexture(img asset.Image) (textureResource, error)
}

type deviceUploader struct {
	device *Device
}

func (u deviceUploader) UploadTexture(img asset.Image) (textureResource, error) {
	return u.device.LoadTexture(img)
}

// TextureCache registers textures by path. Loading is all or nothing: if any path fails, the
// cache is left as it was.
type TextureCache struct {
	uploader textureUploader
	decode   func(path string) (asset.Image, error)
	textures *swiss.Map[string, textureResource]
}

func NewTextureCache(device *Device) *TextureCache {
	return newTextureCache(deviceUploader{device: device}, asset.LoadImage)
}

func newTextureCache(uploader textureUploader, decode func(string) (asset.Image, error)) *TextureCache {
	return &TextureCache{
		uploader: uploader,
		decode:   decode,
		textures: swiss.NewMap[string, textureResource](8),
	}
}

// Load decodes every path concurrently, then uploads them one by one on the calling thread.
// Paths that are already cached are skipped.
func (c *TextureCache) Load(ctx context.Context, paths ...string) error {
	var pending []string
	for _, path := range paths {
		if !c.textures.Has(path) {
			pending = append(pending, path)
		}
	}

	images := make([]asset.Image, len(pending))
	group, _ := errgroup.WithContext(ctx)
	for i, path := range pending {
		group.Go(func() error {
			img, err := c.decode(path)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	err := group.Wait()
	if err != nil {
		return errors.Wrap(err, "decoding textures")
	}

	uploaded := make([]textureResource, 0, len(pending))
	for i, img := range images {
		texture, err := c.uploader.UploadTexture(img)
		if err != nil {
			for _, done := range uploaded {
				err = errors.CombineErrors(err, done.Destroy())
			}
			return errors.Wrapf(err, "uploading texture %s", pending[i])
		}
		uploaded = append(uploaded, texture)
	}

	for i, texture := range uploaded {
		c.textures.Put(pending[i], texture)
	}
	return nil
}

// Get returns the texture registered for path.
func (c *TextureCache) Get(path string) (*Texture, bool) {
	resource, ok := c.textures.Get(path)
	if !ok {
		return nil, false
	}
	texture, ok := resource.(*Texture)
	return texture, ok
}

func (c *TextureCache) Count() int { return c.textures.Count() }

// Destroy releases every cached texture. The device must be idle.
func (c *TextureCache) Destroy() error {
	var result error
	c.textures.Iter(func(path string, texture textureResource) bool {
		if err := texture.Destroy(); err != nil {
			result = errors.CombineErrors(result, errors.Wrapf(err, "texture %s", path))
		}
		return false
	})
	c.textures.Clear()
	return result
}
