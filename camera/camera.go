// Package camera implements the first-person camera the playground renders through.
package camera

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Mode int

const (
	ModeFree Mode = iota
	// ModeFPS snaps the camera back to an upright orientation looking down -Z.
	ModeFPS
)

// vulkanClip converts OpenGL clip space, as produced by mgl32.Perspective, to Vulkan's: Y points
// down and depth runs from 0 to 1.
var vulkanClip = mgl32.Mat4{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

type Options struct {
	// FOV is the vertical field of view in degrees.
	FOV         float32
	Near        float32
	Far         float32
	Sensitivity float32
}

type Camera struct {
	position mgl32.Vec3
	up       mgl32.Vec3
	right    mgl32.Vec3
	view     mgl32.Vec3

	fov         float32
	near        float32
	far         float32
	sensitivity float32

	mode Mode
}

// New creates a camera at position with the given orthonormal basis. view is the direction
// the camera looks in.
func New(position, up, right, view mgl32.Vec3, opts Options) *Camera {
	return &Camera{
		position:    position,
		up:          up.Normalize(),
		right:       right.Normalize(),
		view:        view.Normalize(),
		fov:         opts.FOV,
		near:        opts.Near,
		far:         opts.Far,
		sensitivity: opts.Sensitivity,
		mode:        ModeFree,
	}
}

func (c *Camera) Mode() Mode { return c.mode }

func (c *Camera) SetMode(mode Mode) {
	c.mode = mode
	if mode == ModeFPS {
		c.up = mgl32.Vec3{0, 1, 0}
		c.right = mgl32.Vec3{1, 0, 0}
		c.view = mgl32.Vec3{0, 0, -1}
	}
}

func (c *Camera) SetFPSMode() { c.SetMode(ModeFPS) }

func (c *Camera) Position() mgl32.Vec3  { return c.position }
func (c *Camera) Up() mgl32.Vec3        { return c.up }
func (c *Camera) Right() mgl32.Vec3     { return c.right }
func (c *Camera) Direction() mgl32.Vec3 { return c.view }

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.position, c.position.Add(c.view), c.up)
}

// Projection returns a perspective projection in Vulkan clip space.
func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	return vulkanClip.Mul4(mgl32.Perspective(mgl32.DegToRad(c.fov), aspect, c.near, c.far))
}

func (c *Camera) Strafe(amount float32) {
	c.position = c.position.Add(c.right.Mul(amount))
}

func (c *Camera) MoveForward(amount float32) {
	c.position = c.position.Add(c.view.Mul(amount))
}

func (c *Camera) MoveUpward(amount float32) {
	c.position = c.position.Add(c.up.Mul(amount))
}

// RotateZ rolls the camera around its view direction.
func (c *Camera) RotateZ(angle float32) {
	rotation := mgl32.QuatRotate(angle, c.view)
	c.up = rotation.Rotate(c.up).Normalize()
	c.right = rotation.Rotate(c.right).Normalize()
}

// OnMouseMove turns the camera by a relative mouse motion in pixels.
func (c *Camera) OnMouseMove(dx, dy int) {
	if dx != 0 {
		yaw := mgl32.QuatRotate(-float32(dx)*c.sensitivity, c.up)
		c.view = yaw.Rotate(c.view).Normalize()
		c.right = yaw.Rotate(c.right).Normalize()
	}

	if dy != 0 {
		pitch := mgl32.QuatRotate(-float32(dy)*c.sensitivity, c.right)
		c.view = pitch.Rotate(c.view).Normalize()
		c.up = pitch.Rotate(c.up).Normalize()
	}

	// keep the basis orthonormal against drift
	c.right = c.view.Cross(c.up).Normalize()
	c.up = c.right.Cross(c.view).Normalize()
}
