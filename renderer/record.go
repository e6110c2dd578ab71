package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// RecordInfo is the state one frame's command buffer is recorded against.
type RecordInfo struct {
	RenderPass  core1_0.RenderPass
	Framebuffer core1_0.Framebuffer
	Extent      core1_0.Extent2D

	Pipeline       core1_0.Pipeline
	PipelineLayout core1_0.PipelineLayout
	DescriptorSet  core1_0.DescriptorSet

	VertexBuffer core1_0.Buffer
	IndexBuffer  core1_0.Buffer
	IndexCount   int
}

// Record writes one indexed draw into buffer: clear, bind pipeline, geometry and descriptor set,
// draw, and close the render pass.
func Record(driver core1_0.DeviceDriver, buffer core1_0.CommandBuffer, info RecordInfo) error {
	res, err := driver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{})
	if err != nil {
		return errors.Mark(vkError(err, res, "beginning frame command buffer"), ErrBeginCommandBuffer)
	}

	err = driver.CmdBeginRenderPass(buffer, core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  info.RenderPass,
			Framebuffer: info.Framebuffer,
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: info.Extent,
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat{0, 0, 0, 1},
				core1_0.ClearValueDepthStencil{Depth: 1.0, Stencil: 0},
			},
		})
	if err != nil {
		return errors.Wrap(err, "beginning render pass")
	}

	driver.CmdBindPipeline(buffer, core1_0.PipelineBindPointGraphics, info.Pipeline)
	driver.CmdBindVertexBuffers(buffer, 0, []core1_0.Buffer{info.VertexBuffer}, []int{0})
	driver.CmdBindIndexBuffer(buffer, info.IndexBuffer, 0, core1_0.IndexTypeUInt32)
	driver.CmdBindDescriptorSets(buffer, core1_0.PipelineBindPointGraphics, info.PipelineLayout, 0, []core1_0.DescriptorSet{
		info.DescriptorSet,
	}, nil)
	driver.CmdDrawIndexed(buffer, info.IndexCount, 1, 0, 0, 0)
	driver.CmdEndRenderPass(buffer)

	res, err = driver.EndCommandBuffer(buffer)
	if err != nil {
		return errors.Mark(vkError(err, res, "ending frame command buffer"), ErrEndCommandBuffer)
	}
	return nil
}
