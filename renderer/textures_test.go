package renderer

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/playground/asset"
)

type fakeTexture struct {
	destroyed int
}

func (t *fakeTexture) Destroy() error {
	t.destroyed++
	return nil
}

type fakeUploader struct {
	uploaded []*fakeTexture
	failAt   int
}

func (u *fakeUploader) UploadTexture(img asset.Image) (textureResource, error) {
	if u.failAt > 0 && len(u.uploaded)+1 == u.failAt {
		return nil, errors.New("out of device memory")
	}
	texture := &fakeTexture{}
	u.uploaded = append(u.uploaded, texture)
	return texture, nil
}

func decodeFrom(images map[string]asset.Image) func(string) (asset.Image, error) {
	return func(path string) (asset.Image, error) {
		img, ok := images[path]
		if !ok {
			return asset.Image{}, errors.Mark(errors.Newf("asset %s", path), asset.ErrAssetNotFound)
		}
		return img, nil
	}
}

var onePixel = asset.Image{Pixels: []byte{0, 0, 255, 255}, Width: 1, Height: 1}

func TestTextureCacheMissingPathRegistersNothing(t *testing.T) {
	uploader := &fakeUploader{}
	cache := newTextureCache(uploader, decodeFrom(map[string]asset.Image{"res/block_blue.png": onePixel}))

	err := cache.Load(context.Background(), "res/block_blue.png", "res/missing.png")
	require.True(t, errors.Is(err, asset.ErrAssetNotFound))
	require.Equal(t, 0, cache.Count())
	require.Empty(t, uploader.uploaded)
}

func TestTextureCacheUploadFailureReleasesEarlierTextures(t *testing.T) {
	uploader := &fakeUploader{failAt: 2}
	cache := newTextureCache(uploader, decodeFrom(map[string]asset.Image{
		"a.png": onePixel,
		"b.png": onePixel,
	}))

	err := cache.Load(context.Background(), "a.png", "b.png")
	require.Error(t, err)
	require.Equal(t, 0, cache.Count())
	require.Len(t, uploader.uploaded, 1)
	require.Equal(t, 1, uploader.uploaded[0].destroyed)
}

func TestTextureCacheLoadAndDestroy(t *testing.T) {
	uploader := &fakeUploader{}
	cache := newTextureCache(uploader, decodeFrom(map[string]asset.Image{
		"a.png": onePixel,
		"b.png": onePixel,
	}))

	require.NoError(t, cache.Load(context.Background(), "a.png", "b.png"))
	require.Equal(t, 2, cache.Count())

	// cached paths are not uploaded again
	require.NoError(t, cache.Load(context.Background(), "a.png"))
	require.Len(t, uploader.uploaded, 2)

	require.NoError(t, cache.Destroy())
	require.Equal(t, 0, cache.Count())
	for _, texture := range uploader.uploaded {
		require.Equal(t, 1, texture.destroyed)
	}
}
