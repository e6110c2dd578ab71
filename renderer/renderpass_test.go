package renderer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

func TestRenderPassSingleSample(t *testing.T) {
	info := renderPassCreateInfo(core1_0.FormatB8G8R8A8SRGB, core1_0.FormatD32SignedFloat, core1_0.Samples1)

	require.Len(t, info.Attachments, 2)
	require.Equal(t, khr_swapchain.ImageLayoutPresentSrc, info.Attachments[0].FinalLayout)
	require.Equal(t, core1_0.Samples1, info.Attachments[1].Samples)
	require.Empty(t, info.Subpasses[0].ResolveAttachments)
}

func TestRenderPassMultisampleResolves(t *testing.T) {
	info := renderPassCreateInfo(core1_0.FormatB8G8R8A8SRGB, core1_0.FormatD32SignedFloat, core1_0.Samples4)

	require.Len(t, info.Attachments, 3)
	require.Equal(t, core1_0.Samples4, info.Attachments[0].Samples)
	require.Equal(t, core1_0.ImageLayoutColorAttachmentOptimal, info.Attachments[0].FinalLayout)
	require.Equal(t, core1_0.Samples4, info.Attachments[1].Samples)
	require.Equal(t, core1_0.Samples1, info.Attachments[2].Samples)
	require.Equal(t, khr_swapchain.ImageLayoutPresentSrc, info.Attachments[2].FinalLayout)

	require.Len(t, info.Subpasses[0].ResolveAttachments, 1)
	require.Equal(t, 2, info.Subpasses[0].ResolveAttachments[0].Attachment)
}

func TestFramebufferAttachmentOrder(t *testing.T) {
	var color, depth, swapchain core1_0.ImageView

	require.Len(t, framebufferAttachments(color, depth, swapchain, false), 2)
	require.Len(t, framebufferAttachments(color, depth, swapchain, true), 3)
}
