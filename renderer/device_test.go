package renderer

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

func TestFindQueueFamiliesPrefersShared(t *testing.T) {
	flags := []core1_0.QueueFlags{core1_0.QueueTransfer, core1_0.QueueGraphics, core1_0.QueueGraphics | core1_0.QueueCompute}
	present := map[int]bool{0: true, 2: true}

	families, ok, err := findQueueFamilies(flags, func(index int) (bool, error) { return present[index], nil })
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, queueFamilies{graphics: 2, present: 2}, families)
}

func TestFindQueueFamiliesSplit(t *testing.T) {
	flags := []core1_0.QueueFlags{core1_0.QueueGraphics, core1_0.QueueTransfer}

	families, ok, err := findQueueFamilies(flags, func(index int) (bool, error) { return index == 1, nil })
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, queueFamilies{graphics: 0, present: 1}, families)
}

func TestFindQueueFamiliesIncomplete(t *testing.T) {
	flags := []core1_0.QueueFlags{core1_0.QueueCompute}

	_, ok, err := findQueueFamilies(flags, func(int) (bool, error) { return true, nil })
	require.NoError(t, err)
	require.False(t, ok)

	sentinel := errors.New("surface gone")
	_, ok, err = findQueueFamilies(flags, func(int) (bool, error) { return false, sentinel })
	require.False(t, ok)
	require.True(t, errors.Is(err, sentinel))
}

func TestDepthFormatPreference(t *testing.T) {
	supported := map[core1_0.Format]bool{
		core1_0.FormatD24UnsignedNormalizedS8UnsignedInt: true,
		core1_0.FormatD16UnsignedNormalized:              true,
	}
	features := func(format core1_0.Format) core1_0.FormatFeatureFlags {
		if supported[format] {
			return core1_0.FormatFeatureDepthStencilAttachment | core1_0.FormatFeatureSampledImage
		}
		return core1_0.FormatFeatureSampledImage
	}

	format, ok := findSupportedFormat(depthFormats, core1_0.FormatFeatureDepthStencilAttachment, features)
	require.True(t, ok)
	require.Equal(t, core1_0.FormatD24UnsignedNormalizedS8UnsignedInt, format)
	require.True(t, hasStencilComponent(format))
	require.False(t, hasStencilComponent(core1_0.FormatD16UnsignedNormalized))

	_, ok = findSupportedFormat(depthFormats, core1_0.FormatFeatureDepthStencilAttachment, func(core1_0.Format) core1_0.FormatFeatureFlags { return 0 })
	require.False(t, ok)
}

func TestMaxUsableSampleCount(t *testing.T) {
	require.Equal(t, core1_0.Samples8, maxUsableSampleCount(core1_0.Samples1|core1_0.Samples2|core1_0.Samples4|core1_0.Samples8))
	require.Equal(t, core1_0.Samples1, maxUsableSampleCount(core1_0.Samples1))
	require.Equal(t, core1_0.Samples1, maxUsableSampleCount(0))

	require.Equal(t, 1, sampleCountValue(core1_0.Samples1))
	require.Equal(t, 8, sampleCountValue(core1_0.Samples8))
	require.Equal(t, 1, sampleCountValue(0))
}

func TestVkErrorMarksLostObjects(t *testing.T) {
	cause := errors.New("driver said no")

	err := vkError(cause, core1_0.VKErrorDeviceLost, "submitting frame %d", 3)
	require.True(t, errors.Is(err, ErrDeviceLost))
	require.True(t, errors.Is(err, cause))
	require.Contains(t, err.Error(), "submitting frame 3")

	err = vkError(cause, khr_surface.VKErrorSurfaceLost, "querying surface")
	require.True(t, errors.Is(err, ErrSurfaceIncompatible))

	err = vkError(cause, core1_0.VKErrorOutOfDeviceMemory, "allocating")
	require.False(t, errors.Is(err, ErrDeviceLost))

	require.NoError(t, vkError(nil, core1_0.VKSuccess, "fine"))
}

func TestSlogBridgeWritesToLogrus(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	bridged, closer := slogBridge(logger)
	bridged.Info("block allocated", "size", 1024)
	require.NoError(t, closer.Close())

	require.Eventually(t, func() bool {
		return len(hook.AllEntries()) > 0
	}, time.Second, 10*time.Millisecond)
	require.Contains(t, hook.LastEntry().Message, "block allocated")

	discard, closer := slogBridge(nil)
	discard.Info("nowhere")
	require.NoError(t, closer.Close())
}
