package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func newTestCamera() *Camera {
	c := New(mgl32.Vec3{0.5, 0.5, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, Options{
		FOV:         45,
		Near:        0.1,
		Far:         100,
		Sensitivity: 0.002,
	})
	c.SetFPSMode()
	return c
}

func requireVec(t *testing.T, expected, actual mgl32.Vec3) {
	t.Helper()
	require.Truef(t, expected.ApproxEqualThreshold(actual, 1e-5), "expected %v, got %v", expected, actual)
}

func TestViewLooksDownNegativeZ(t *testing.T) {
	c := newTestCamera()
	require.Equal(t, ModeFPS, c.Mode())

	ahead := c.View().Mul4x1(mgl32.Vec4{0.5, 0.5, -1, 1})
	requireVec(t, mgl32.Vec3{0, 0, -1}, ahead.Vec3())
}

func TestMovement(t *testing.T) {
	c := newTestCamera()

	c.MoveForward(2)
	requireVec(t, mgl32.Vec3{0.5, 0.5, -2}, c.Position())

	c.Strafe(-1)
	requireVec(t, mgl32.Vec3{-0.5, 0.5, -2}, c.Position())

	c.MoveUpward(3)
	requireVec(t, mgl32.Vec3{-0.5, 3.5, -2}, c.Position())
}

func TestRotateZRollsAroundView(t *testing.T) {
	c := newTestCamera()

	c.RotateZ(math.Pi / 2)
	requireVec(t, mgl32.Vec3{0, 0, -1}, c.Direction())
	requireVec(t, mgl32.Vec3{1, 0, 0}, c.Up())
	requireVec(t, mgl32.Vec3{0, -1, 0}, c.Right())

	c.SetFPSMode()
	requireVec(t, mgl32.Vec3{0, 1, 0}, c.Up())
}

func TestMouseMoveKeepsBasisOrthonormal(t *testing.T) {
	c := newTestCamera()

	for i := 0; i < 100; i++ {
		c.OnMouseMove(13, -7)
	}

	require.InDelta(t, 1, c.Direction().Len(), 1e-4)
	require.InDelta(t, 1, c.Up().Len(), 1e-4)
	require.InDelta(t, 1, c.Right().Len(), 1e-4)
	require.InDelta(t, 0, c.Direction().Dot(c.Up()), 1e-4)
	require.InDelta(t, 0, c.Direction().Dot(c.Right()), 1e-4)
	require.InDelta(t, 0, c.Up().Dot(c.Right()), 1e-4)
}

func TestMouseMoveRightTurnsRight(t *testing.T) {
	c := newTestCamera()

	c.OnMouseMove(100, 0)
	require.Greater(t, c.Direction().X(), float32(0))
}

func TestProjectionUsesVulkanClipSpace(t *testing.T) {
	c := newTestCamera()
	proj := c.Projection(4.0 / 3.0)

	near := proj.Mul4x1(mgl32.Vec4{0, 0, -0.1, 1})
	require.InDelta(t, 0, near.Z()/near.W(), 1e-4)

	far := proj.Mul4x1(mgl32.Vec4{0, 0, -100, 1})
	require.InDelta(t, 1, far.Z()/far.W(), 1e-4)

	above := proj.Mul4x1(mgl32.Vec4{0, 1, -5, 1})
	require.Less(t, above.Y()/above.W(), float32(0))
}
