package engine

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

const (
	defaultMovementSpeed = 8.0
	rollSpeed            = 2.0
)

type Options struct {
	Context Context
	Scene   Scene
	Camera  Camera
	Overlay Overlay
	// Watcher is optional. When set, it is polled once per update and a change rebuilds the
	// pipelines.
	Watcher ShaderWatcher
	Logger  logrus.FieldLogger

	// MovementSpeed is in world units per second. Zero selects the default.
	MovementSpeed float32
}

// Application is the frame driver. All of its methods must be called from the thread that owns
// the Vulkan device.
type Application struct {
	ctx     Context
	scene   Scene
	camera  Camera
	overlay Overlay
	watcher ShaderWatcher
	log     logrus.FieldLogger

	speed   float32
	state   State
	keys    KeyTable
	pending RebuildTarget
	frames  uint64

	// minimized is set between the window's minimize and restore notifications. Resizes do not
	// resume rendering while it is set.
	minimized bool
}

func NewApplication(opts Options) *Application {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	speed := opts.MovementSpeed
	if speed == 0 {
		speed = defaultMovementSpeed
	}

	return &Application{
		ctx:     opts.Context,
		scene:   opts.Scene,
		camera:  opts.Camera,
		overlay: opts.Overlay,
		watcher: opts.Watcher,
		log:     logger.WithField("component", "engine"),
		speed:   speed,
		state:   StateIdle,
	}
}

func (a *Application) State() State { return a.state }

// Frames returns the number of frames that were presented.
func (a *Application) Frames() uint64 { return a.frames }

func (a *Application) Running() bool { return a.state != StateTerminated }

// KeyPressed reports the held state of key.
func (a *Application) KeyPressed(key Key) bool { return a.keys.Pressed(key) }

// OnStart loads the scene, builds its first pipeline and starts rendering.
func (a *Application) OnStart() error {
	if a.state != StateIdle {
		return errors.Newf("engine: cannot start from state %s", a.state)
	}

	err := a.scene.Load()
	if err != nil {
		return errors.Wrap(err, "loading scene")
	}

	err = a.scene.BuildPipeline()
	if err != nil {
		return errors.Wrap(err, "building initial pipeline")
	}

	a.camera.SetFPSMode()
	a.state = StateRendering

	width, height := a.ctx.DrawableSize()
	if width == 0 || height == 0 {
		a.suspend("zero-area surface at startup")
	}

	a.log.WithField("state", a.state).Info("application started")
	return nil
}

// OnWindowResize reacts to a resize notification. The size carried by the notification is not
// used: the surface is queried again, and the rebuild itself runs before the next frame so that
// a burst of resizes results in a single rebuild at the latest size. A minimized window stays
// suspended whatever size it reports.
func (a *Application) OnWindowResize() {
	if a.state != StateRendering && a.state != StateSuspended {
		return
	}
	if a.minimized {
		a.suspend("resized while minimized")
		return
	}

	width, height := a.ctx.DrawableSize()
	if width == 0 || height == 0 {
		a.suspend("zero-area surface")
		return
	}

	a.resume()
}

func (a *Application) OnWindowMinimized(minimized bool) {
	if a.state != StateRendering && a.state != StateSuspended {
		return
	}

	a.minimized = minimized
	if minimized {
		a.suspend("window minimized")
		return
	}

	a.resume()
}

func (a *Application) suspend(reason string) {
	if a.state != StateSuspended {
		a.log.WithField("reason", reason).Debug("rendering suspended")
	}
	a.state = StateSuspended
}

// resume forces a swapchain rebuild: the driver may have invalidated the chain while nothing
// was presented.
func (a *Application) resume() {
	if a.state == StateSuspended {
		a.log.Debug("rendering resumed")
	}
	a.state = StateRendering
	a.requestRebuild(RebuildSwapChain)
}

func (a *Application) requestRebuild(target RebuildTarget) {
	a.pending |= target
}

// rebuild is the only path that recreates render targets and pipelines. It consumes every
// pending target at once.
func (a *Application) rebuild() error {
	width, height := a.ctx.DrawableSize()
	if width == 0 || height == 0 {
		a.suspend("zero-area surface during rebuild")
		return nil
	}

	target := a.pending
	a.log.WithFields(logrus.Fields{
		"target": target,
		"width":  width,
		"height": height,
	}).Debug("rebuilding render targets")

	err := a.ctx.Rebuild(target)
	if err != nil {
		return errors.Wrapf(err, "rebuilding %s", target)
	}

	err = a.scene.BuildPipeline()
	if err != nil {
		return errors.Wrap(err, "rebuilding scene pipeline")
	}

	err = a.overlay.RebuildPipeline()
	if err != nil {
		return errors.Wrap(err, "rebuilding overlay pipeline")
	}

	a.pending = 0
	return nil
}

// OnUpdate advances camera movement and the overlay by dt seconds.
func (a *Application) OnUpdate(dt float32) {
	if a.state != StateRendering {
		return
	}

	if a.watcher != nil && a.watcher.Changed() {
		a.log.Info("shader sources changed")
		a.requestRebuild(RebuildShaders)
	}

	a.updateCamera(dt)
	a.overlay.OnUpdate(dt)
}

func (a *Application) updateCamera(dt float32) {
	move := a.speed * dt

	if a.keys.Pressed(KeyA) {
		a.camera.Strafe(-move)
	}
	if a.keys.Pressed(KeyD) {
		a.camera.Strafe(move)
	}
	if a.keys.Pressed(KeyW) {
		a.camera.MoveForward(move)
	}
	if a.keys.Pressed(KeyS) {
		a.camera.MoveForward(-move)
	}
	if a.keys.Pressed(KeyQ) {
		a.camera.RotateZ(rollSpeed * dt)
	}
	if a.keys.Pressed(KeyE) {
		a.camera.RotateZ(-rollSpeed * dt)
	}
	if a.keys.Pressed(KeyR) {
		a.camera.MoveUpward(move)
	}
	if a.keys.Pressed(KeyF) {
		a.camera.MoveUpward(-move)
	}
}

// OnRender draws one frame. Out-of-date and suboptimal results are not errors; they schedule a
// rebuild instead.
func (a *Application) OnRender() error {
	if a.state != StateRendering {
		return nil
	}

	if a.pending != 0 {
		err := a.rebuild()
		if err != nil {
			return err
		}
		if a.state != StateRendering {
			return nil
		}
	}

	status, err := a.ctx.RenderStart()
	if err != nil {
		return errors.Wrap(err, "starting frame")
	}
	if status == FrameOutOfDate {
		a.log.Debug("swapchain out of date on acquire, skipping frame")
		a.requestRebuild(RebuildSwapChain)
		return a.rebuild()
	}

	width, height := a.ctx.DrawableSize()
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}

	err = a.scene.UpdateUniforms(a.camera.View(), a.camera.Projection(aspect))
	if err != nil {
		return errors.Wrap(err, "updating uniforms")
	}

	err = a.scene.Record()
	if err != nil {
		a.log.WithError(err).Error("recording frame")
		return err
	}

	a.overlay.OnRender()

	err = a.ctx.Submit()
	if err != nil {
		return errors.Wrap(err, "submitting frame")
	}

	status, err = a.ctx.Present()
	if err != nil {
		return errors.Wrap(err, "presenting frame")
	}
	if status != FrameOK {
		a.log.WithField("status", status).Debug("present requested a swapchain rebuild")
		a.requestRebuild(RebuildSwapChain)
	}

	a.frames++
	return nil
}

func (a *Application) OnKeyPress(key Key) error {
	if a.state == StateTerminated {
		return nil
	}

	a.keys.Set(key, true)

	switch key {
	case KeyEscape:
		return a.Terminate()
	case KeyF8:
		samples := a.ctx.ToggleMSAA()
		a.log.WithField("samples", samples).Info("multisampling toggled")
		a.requestRebuild(RebuildMultisample)
		a.overlay.SetSampleCount(samples)
	}

	a.overlay.OnKeyPress(key)
	return nil
}

func (a *Application) OnKeyRelease(key Key) {
	a.keys.Set(key, false)
}

func (a *Application) OnMouseMove(x, y int) {
	if a.state != StateRendering {
		return
	}
	a.camera.OnMouseMove(x, y)
}

// Terminate idle-waits the device and tears down the scene and the context, in that order.
// Calling it again is a no-op.
func (a *Application) Terminate() error {
	if a.state == StateTerminated {
		return nil
	}
	a.state = StateTerminated
	a.log.Info("application terminating")

	var err error
	waitErr := a.ctx.WaitIdle()
	if waitErr != nil {
		err = errors.Wrap(waitErr, "waiting for device idle")
	}

	a.scene.Destroy()

	destroyErr := a.ctx.Destroy()
	if destroyErr != nil {
		err = errors.CombineErrors(err, errors.Wrap(destroyErr, "destroying render context"))
	}

	return err
}
