package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/playground/camera"
)

// framebufferArea is the signed area Vulkan rasterization uses to decide facing: positive means
// counter-clockwise in framebuffer coordinates.
func framebufferArea(mvp mgl32.Mat4, extent core1_0.Extent2D, triangle [3]Vertex) float32 {
	var points [3]mgl32.Vec2
	for i, vertex := range triangle {
		clip := mvp.Mul4x1(vertex.Position.Vec4(1))
		ndc := clip.Vec3().Mul(1 / clip.W())
		points[i] = mgl32.Vec2{
			(ndc.X() + 1) * float32(extent.Width) / 2,
			(ndc.Y() + 1) * float32(extent.Height) / 2,
		}
	}

	var sum float32
	for i := range points {
		next := points[(i+1)%3]
		sum += points[i].X()*next.Y() - next.X()*points[i].Y()
	}
	return -sum / 2
}

func TestQuadIsFrontFacingFromStartCamera(t *testing.T) {
	cam := camera.New(mgl32.Vec3{0.5, 0.5, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1},
		camera.Options{FOV: 45, Near: 0.1, Far: 100, Sensitivity: 0.002})
	cam.SetFPSMode()

	extent := core1_0.Extent2D{Width: 1024, Height: 768}
	mvp := cam.Projection(float32(extent.Width) / float32(extent.Height)).Mul4(cam.View())

	info := graphicsPipelineCreateInfo(PipelineInfo{Extent: extent}, core1_0.PipelineLayout{}, core1_0.ShaderModule{}, core1_0.ShaderModule{})
	raster := info.RasterizationState
	require.Equal(t, core1_0.CullModeBack, raster.CullMode)

	require.Len(t, quadIndices, 6)
	for first := 0; first < len(quadIndices); first += 3 {
		triangle := [3]Vertex{
			quadVertices[quadIndices[first]],
			quadVertices[quadIndices[first+1]],
			quadVertices[quadIndices[first+2]],
		}
		area := framebufferArea(mvp, extent, triangle)
		require.NotZero(t, area)

		front := area > 0
		if raster.FrontFace == core1_0.FrontFaceClockwise {
			front = area < 0
		}
		require.Truef(t, front, "triangle %d has area %g and would be culled", first/3, area)
	}
}
