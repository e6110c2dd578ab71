package engine

import (
	"github.com/go-gl/mathgl/mgl32"
)

type eventLog struct {
	events []string
}

func (l *eventLog) add(event string) {
	l.events = append(l.events, event)
}

func (l *eventLog) since(mark int) []string {
	return append([]string(nil), l.events[mark:]...)
}

type fakeContext struct {
	log *eventLog

	width, height int
	extent        [2]int
	samples       int

	acquireStatus []FrameStatus
	presentStatus []FrameStatus

	acquires  int
	submits   int
	presents  int
	rebuilds  []RebuildTarget
	destroyed bool
	waits     int

	rebuildErr error
}

func newFakeContext(log *eventLog, width, height int) *fakeContext {
	return &fakeContext{
		log:     log,
		width:   width,
		height:  height,
		extent:  [2]int{width, height},
		samples: 1,
	}
}

func (c *fakeContext) DrawableSize() (int, int) {
	return c.width, c.height
}

func (c *fakeContext) RenderStart() (FrameStatus, error) {
	c.acquires++
	c.log.add("acquire")
	if len(c.acquireStatus) > 0 {
		status := c.acquireStatus[0]
		c.acquireStatus = c.acquireStatus[1:]
		return status, nil
	}
	return FrameOK, nil
}

func (c *fakeContext) Submit() error {
	c.submits++
	c.log.add("submit")
	return nil
}

func (c *fakeContext) Present() (FrameStatus, error) {
	c.presents++
	c.log.add("present")
	if len(c.presentStatus) > 0 {
		status := c.presentStatus[0]
		c.presentStatus = c.presentStatus[1:]
		return status, nil
	}
	return FrameOK, nil
}

func (c *fakeContext) Rebuild(target RebuildTarget) error {
	if c.rebuildErr != nil {
		return c.rebuildErr
	}
	c.rebuilds = append(c.rebuilds, target)
	c.log.add("rebuild:" + target.String())
	if target&RebuildSwapChain != 0 {
		c.extent = [2]int{c.width, c.height}
	}
	return nil
}

func (c *fakeContext) ToggleMSAA() int {
	if c.samples == 1 {
		c.samples = 4
	} else {
		c.samples = 1
	}
	return c.samples
}

func (c *fakeContext) WaitIdle() error {
	c.waits++
	c.log.add("wait")
	return nil
}

func (c *fakeContext) Destroy() error {
	c.destroyed = true
	c.log.add("context.destroy")
	return nil
}

type fakeScene struct {
	log *eventLog

	loaded         bool
	pipelineBuilds int
	uniforms       int
	records        int
	destroyed      bool

	loadErr error
}

func (s *fakeScene) Load() error {
	if s.loadErr != nil {
		return s.loadErr
	}
	s.loaded = true
	s.log.add("scene.load")
	return nil
}

func (s *fakeScene) BuildPipeline() error {
	s.pipelineBuilds++
	s.log.add("pipeline")
	return nil
}

func (s *fakeScene) UpdateUniforms(view, projection mgl32.Mat4) error {
	s.uniforms++
	s.log.add("uniforms")
	return nil
}

func (s *fakeScene) Record() error {
	s.records++
	s.log.add("record")
	return nil
}

func (s *fakeScene) Destroy() {
	s.destroyed = true
	s.log.add("scene.destroy")
}

type fakeCamera struct {
	fps     bool
	strafe  float32
	forward float32
	upward  float32
	roll    float32
	mouseX  int
	mouseY  int
	aspects []float32
}

func (c *fakeCamera) SetFPSMode()                { c.fps = true }
func (c *fakeCamera) View() mgl32.Mat4           { return mgl32.Ident4() }
func (c *fakeCamera) Strafe(amount float32)      { c.strafe += amount }
func (c *fakeCamera) MoveForward(amount float32) { c.forward += amount }
func (c *fakeCamera) MoveUpward(amount float32)  { c.upward += amount }
func (c *fakeCamera) RotateZ(angle float32)      { c.roll += angle }
func (c *fakeCamera) OnMouseMove(x, y int)       { c.mouseX, c.mouseY = x, y }
func (c *fakeCamera) Projection(aspect float32) mgl32.Mat4 {
	c.aspects = append(c.aspects, aspect)
	return mgl32.Ident4()
}

type fakeOverlay struct {
	updates  int
	renders  int
	rebuilds int
	samples  int
	keys     []Key
}

func (o *fakeOverlay) OnUpdate(dt float32)        { o.updates++ }
func (o *fakeOverlay) OnRender() bool             { o.renders++; return true }
func (o *fakeOverlay) OnKeyPress(key Key)         { o.keys = append(o.keys, key) }
func (o *fakeOverlay) RebuildPipeline() error     { o.rebuilds++; return nil }
func (o *fakeOverlay) SetSampleCount(samples int) { o.samples = samples }

type fakeWatcher struct {
	changed bool
}

func (w *fakeWatcher) Changed() bool {
	changed := w.changed
	w.changed = false
	return changed
}
