// Package engine drives the frame lifecycle of the playground: it owns the state machine that
// decides when to acquire, record, submit and present, and when swapchain-dependent state has to
// be rebuilt. GPU work is delegated to the collaborators declared in this file.
package engine

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// FrameStatus is the non-fatal outcome of acquiring or presenting a swapchain image.
type FrameStatus int

const (
	FrameOK FrameStatus = iota
	FrameOutOfDate
	FrameSuboptimal
)

func (s FrameStatus) String() string {
	switch s {
	case FrameOK:
		return "ok"
	case FrameOutOfDate:
		return "out of date"
	case FrameSuboptimal:
		return "suboptimal"
	}
	return fmt.Sprintf("FrameStatus(%d)", int(s))
}

// RebuildTarget names the render targets that changed and must be rebuilt before the next frame
// is recorded. Targets combine as bit flags.
type RebuildTarget uint8

const (
	// RebuildSwapChain recreates the swapchain and everything built against it.
	RebuildSwapChain RebuildTarget = 1 << iota
	// RebuildMultisample recreates the render pass and its attachments for a new sample count.
	RebuildMultisample
	// RebuildShaders only recompiles pipelines.
	RebuildShaders
)

func (t RebuildTarget) String() string {
	if t == 0 {
		return "none"
	}

	var names []string
	if t&RebuildSwapChain != 0 {
		names = append(names, "swapchain")
	}
	if t&RebuildMultisample != 0 {
		names = append(names, "multisample")
	}
	if t&RebuildShaders != 0 {
		names = append(names, "shaders")
	}
	return strings.Join(names, "|")
}

// Context is the GPU-facing half of the renderer: the swapchain, render pass and frame
// synchronization owned by a single device.
type Context interface {
	// DrawableSize queries the current surface size from the window system.
	DrawableSize() (width, height int)
	RenderStart() (FrameStatus, error)
	Submit() error
	Present() (FrameStatus, error)
	// Rebuild idle-waits the device and recreates the state named by target.
	Rebuild(target RebuildTarget) error
	// ToggleMSAA flips the multisample setting and returns the sample count that the next
	// render pass rebuild will use.
	ToggleMSAA() int
	WaitIdle() error
	Destroy() error
}

// Scene owns the drawable content: buffers, textures, descriptors and the pipeline that draws
// them against the Context's current render pass.
type Scene interface {
	Load() error
	// BuildPipeline destroys the previous pipeline, if any, and builds a new one.
	BuildPipeline() error
	UpdateUniforms(view, projection mgl32.Mat4) error
	Record() error
	Destroy()
}

type Camera interface {
	SetFPSMode()
	View() mgl32.Mat4
	Projection(aspect float32) mgl32.Mat4
	Strafe(amount float32)
	MoveForward(amount float32)
	MoveUpward(amount float32)
	RotateZ(angle float32)
	OnMouseMove(x, y int)
}

type Overlay interface {
	OnUpdate(dt float32)
	OnRender() bool
	OnKeyPress(key Key)
	RebuildPipeline() error
	SetSampleCount(samples int)
}

// ShaderWatcher reports whether shader sources changed since the last poll. Changed must never
// block.
type ShaderWatcher interface {
	Changed() bool
}
