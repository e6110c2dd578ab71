package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// RunSingleTime records a one-off command buffer with record, submits it to the graphics queue
// and waits for the queue to drain. Used for uploads and layout transitions during loading.
func (d *Device) RunSingleTime(record func(buffer core1_0.CommandBuffer) error) error {
	buffers, res, err := d.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        d.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return vkError(err, res, "allocating one-time command buffer")
	}
	defer d.driver.FreeCommandBuffers(buffers...)

	buffer := buffers[0]
	res, err = d.driver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		return errors.Mark(vkError(err, res, "beginning one-time command buffer"), ErrBeginCommandBuffer)
	}

	err = record(buffer)
	if err != nil {
		return err
	}

	res, err = d.driver.EndCommandBuffer(buffer)
	if err != nil {
		return errors.Mark(vkError(err, res, "ending one-time command buffer"), ErrEndCommandBuffer)
	}

	res, err = d.driver.QueueSubmit(d.graphicsQueue, nil, core1_0.SubmitInfo{
		CommandBuffers: []core1_0.CommandBuffer{buffer},
	})
	if err != nil {
		return vkError(err, res, "submitting one-time command buffer")
	}

	res, err = d.driver.QueueWaitIdle(d.graphicsQueue)
	return vkError(err, res, "waiting for graphics queue")
}

// allocateCommandBuffers allocates count primary buffers from the device's resettable pool.
func (d *Device) allocateCommandBuffers(count int) ([]core1_0.CommandBuffer, error) {
	buffers, res, err := d.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        d.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, vkError(err, res, "allocating %d command buffers", count)
	}
	return buffers, nil
}
