package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// PipelineInfo is everything a graphics pipeline depends on. A pipeline is only valid against
// the render pass and sample count it was built with.
type PipelineInfo struct {
	RenderPass       core1_0.RenderPass
	DescriptorLayout core1_0.DescriptorSetLayout
	VertexLayout     VertexLayout
	ShaderPaths      ShaderPaths
	Extent           core1_0.Extent2D
	Samples          core1_0.SampleCountFlags
	// Cache is optional.
	Cache *PipelineCache
}

type Pipeline struct {
	driver core1_0.DeviceDriver

	layout core1_0.PipelineLayout
	handle core1_0.Pipeline
}

func (p *Pipeline) Handle() core1_0.Pipeline       { return p.handle }
func (p *Pipeline) Layout() core1_0.PipelineLayout { return p.layout }

// BuildPipeline compiles the shaders named by info and builds a graphics pipeline and its
// layout. Shader modules are released before returning.
func BuildPipeline(driver core1_0.DeviceDriver, info PipelineInfo) (*Pipeline, error) {
	vertShader, err := loadShaderModule(driver, info.ShaderPaths.Vertex)
	if err != nil {
		return nil, err
	}
	defer driver.DestroyShaderModule(vertShader, nil)

	fragShader, err := loadShaderModule(driver, info.ShaderPaths.Fragment)
	if err != nil {
		return nil, err
	}
	defer driver.DestroyShaderModule(fragShader, nil)

	layout, res, err := driver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: []core1_0.DescriptorSetLayout{
			info.DescriptorLayout,
		},
	})
	if err != nil {
		return nil, errors.Mark(vkError(err, res, "creating pipeline layout"), ErrPipelineCreate)
	}

	var cache *core1_0.PipelineCache
	if info.Cache != nil {
		cache = &info.Cache.handle
	}

	pipelines, res, err := driver.CreateGraphicsPipelines(cache, nil, graphicsPipelineCreateInfo(info, layout, vertShader, fragShader))
	if err != nil {
		driver.DestroyPipelineLayout(layout, nil)
		return nil, errors.Mark(vkError(err, res, "creating graphics pipeline"), ErrPipelineCreate)
	}

	return &Pipeline{
		driver: driver,
		layout: layout,
		handle: pipelines[0],
	}, nil
}

func graphicsPipelineCreateInfo(info PipelineInfo, layout core1_0.PipelineLayout, vertShader, fragShader core1_0.ShaderModule) core1_0.GraphicsPipelineCreateInfo {
	vertexInput := &core1_0.PipelineVertexInputStateCreateInfo{
		VertexBindingDescriptions:   info.VertexLayout.Bindings,
		VertexAttributeDescriptions: info.VertexLayout.Attributes,
	}

	inputAssembly := &core1_0.PipelineInputAssemblyStateCreateInfo{
		Topology:               core1_0.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: false,
	}

	vertStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageVertex,
		Module: vertShader,
		Name:   "main",
	}

	fragStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageFragment,
		Module: fragShader,
		Name:   "main",
	}

	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{
			{
				X:        0,
				Y:        0,
				Width:    float32(info.Extent.Width),
				Height:   float32(info.Extent.Height),
				MinDepth: 0,
				MaxDepth: 1,
			},
		},
		Scissors: []core1_0.Rect2D{
			{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: info.Extent,
			},
		},
	}

	rasterization := &core1_0.PipelineRasterizationStateCreateInfo{
		DepthClampEnable:        false,
		RasterizerDiscardEnable: false,

		PolygonMode: core1_0.PolygonModeFill,
		CullMode:    core1_0.CullModeBack,
		FrontFace:   core1_0.FrontFaceCounterClockwise,

		DepthBiasEnable: false,

		LineWidth: 1.0,
	}

	samples := info.Samples
	if samples == 0 {
		samples = core1_0.Samples1
	}
	multisample := &core1_0.PipelineMultisampleStateCreateInfo{
		SampleShadingEnable:  false,
		RasterizationSamples: samples,
		MinSampleShading:     1.0,
	}

	depthStencil := &core1_0.PipelineDepthStencilStateCreateInfo{
		DepthTestEnable:  true,
		DepthWriteEnable: true,
		DepthCompareOp:   core1_0.CompareOpLess,
	}

	colorBlend := &core1_0.PipelineColorBlendStateCreateInfo{
		LogicOpEnabled: false,
		LogicOp:        core1_0.LogicOpCopy,

		BlendConstants: [4]float32{0, 0, 0, 0},
		Attachments: []core1_0.PipelineColorBlendAttachmentState{
			{
				BlendEnabled:   false,
				ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
			},
		},
	}

	return core1_0.GraphicsPipelineCreateInfo{
		Stages: []core1_0.PipelineShaderStageCreateInfo{
			vertStage,
			fragStage,
		},
		VertexInputState:   vertexInput,
		InputAssemblyState: inputAssembly,
		ViewportState:      viewport,
		RasterizationState: rasterization,
		MultisampleState:   multisample,
		DepthStencilState:  depthStencil,
		ColorBlendState:    colorBlend,
		Layout:             layout,
		RenderPass:         info.RenderPass,
		Subpass:            0,
		BasePipelineIndex:  -1,
	}
}

// Destroy releases the pipeline and its layout. The device must be idle. Safe to call twice.
func (p *Pipeline) Destroy() {
	if p == nil || p.driver == nil {
		return
	}

	p.driver.DestroyPipeline(p.handle, nil)
	p.driver.DestroyPipelineLayout(p.layout, nil)
	p.driver = nil
}
