package renderer

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/mocks"
	"github.com/vkngwrapper/core/v3/mocks/mocks1_2"
	"go.uber.org/mock/gomock"
)

func TestQuadSceneDestroyBeforeLoad(t *testing.T) {
	logger, hook := test.NewNullLogger()
	scene := NewQuadScene(&RenderContext{}, QuadOptions{Texture: "res/block_blue.png", Logger: logger})

	scene.Destroy()
	scene.Destroy()

	require.Zero(t, scene.PipelineBuilds())
	require.Empty(t, hook.AllEntries())
}

func TestQuadSceneBuildPipelineReplacesOldPipeline(t *testing.T) {
	ctrl := gomock.NewController(t)
	driver := mocks1_2.NewMockCoreDeviceDriver(ctrl)

	device := mocks.NewDummyDevice(common.Vulkan1_2, []string{})
	oldPipeline := mocks.NewDummyPipeline(device)
	oldLayout := mocks.NewDummyPipelineLayout(device)
	newPipeline := mocks.NewDummyPipeline(device)

	ctx := &RenderContext{
		device: &Device{driver: driver},
		renderPass: &RenderPass{
			samples: core1_0.Samples4,
			extent:  core1_0.Extent2D{Width: 800, Height: 600},
		},
	}
	logger, _ := test.NewNullLogger()
	scene := NewQuadScene(ctx, QuadOptions{Shaders: writeShaders(t), Logger: logger})
	scene.pipeline = &Pipeline{driver: driver, layout: oldLayout, handle: oldPipeline}

	gomock.InOrder(
		driver.EXPECT().DestroyPipeline(oldPipeline, gomock.Nil()),
		driver.EXPECT().DestroyPipelineLayout(oldLayout, gomock.Nil()),
		driver.EXPECT().CreateShaderModule(gomock.Any(), gomock.Any()).Return(core1_0.ShaderModule{}, core1_0.VKSuccess, nil).Times(2),
		driver.EXPECT().CreatePipelineLayout(gomock.Any(), gomock.Any()).Return(core1_0.PipelineLayout{}, core1_0.VKSuccess, nil),
		driver.EXPECT().CreateGraphicsPipelines(gomock.Nil(), gomock.Any(), gomock.Any()).Return([]core1_0.Pipeline{newPipeline}, core1_0.VKSuccess, nil),
		driver.EXPECT().DestroyShaderModule(gomock.Any(), gomock.Any()).Times(2),
	)

	require.NoError(t, scene.BuildPipeline())
	require.Equal(t, 1, scene.PipelineBuilds())
	require.Equal(t, newPipeline, scene.pipeline.Handle())
}
