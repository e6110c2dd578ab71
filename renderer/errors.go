package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

var (
	ErrNoSuitableDevice    = errors.New("no suitable physical device")
	ErrDeviceLost          = errors.New("device lost")
	ErrSurfaceIncompatible = errors.New("surface incompatible with device")
	ErrShaderCompile       = errors.New("shader module rejected")
	ErrPipelineCreate      = errors.New("pipeline creation failed")
	ErrBeginCommandBuffer  = errors.New("could not begin command buffer")
	ErrEndCommandBuffer    = errors.New("could not end command buffer")
	ErrLeakedAllocations   = errors.New("allocations outlived the allocator")
	ErrPipelineCache       = errors.New("pipeline cache data rejected")
)

// vkError wraps a failed Vulkan call with its result code. Lost devices and surfaces are marked
// so callers can tell them apart from ordinary failures.
func vkError(err error, res common.VkResult, format string, args ...any) error {
	if err == nil {
		return nil
	}

	wrapped := errors.Wrapf(err, format+" (%s)", append(args, res)...)
	switch res {
	case core1_0.VKErrorDeviceLost:
		return errors.Mark(wrapped, ErrDeviceLost)
	case khr_surface.VKErrorSurfaceLost:
		return errors.Mark(wrapped, ErrSurfaceIncompatible)
	}
	return wrapped
}
