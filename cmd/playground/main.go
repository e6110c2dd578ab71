package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkngwrapper/playground/camera"
	"github.com/vkngwrapper/playground/config"
	"github.com/vkngwrapper/playground/engine"
	"github.com/vkngwrapper/playground/overlay"
	"github.com/vkngwrapper/playground/renderer"
)

var keymap = map[sdl.Keycode]engine.Key{
	sdl.K_ESCAPE: engine.KeyEscape,
	sdl.K_w:      engine.KeyW,
	sdl.K_a:      engine.KeyA,
	sdl.K_s:      engine.KeyS,
	sdl.K_d:      engine.KeyD,
	sdl.K_q:      engine.KeyQ,
	sdl.K_e:      engine.KeyE,
	sdl.K_r:      engine.KeyR,
	sdl.K_f:      engine.KeyF,
	sdl.K_F8:     engine.KeyF8,
	sdl.K_F11:    engine.KeyF11,
}

type playground struct {
	cfg     config.Configuration
	logger  *logrus.Logger
	window  *sdl.Window
	app     *engine.Application
	watcher *renderer.ShaderWatcher
}

func (p *playground) initWindow() error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return errors.Wrap(err, "initializing sdl")
	}

	window, err := sdl.CreateWindow(p.cfg.Window.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(p.cfg.Window.Width), int32(p.cfg.Window.Height),
		sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return errors.Wrap(err, "creating window")
	}
	p.window = window

	sdl.SetRelativeMouseMode(true)
	return nil
}

func (p *playground) initRenderer() error {
	device, err := renderer.NewDevice(p.window, renderer.DeviceOptions{
		ApplicationName: p.cfg.Window.Title,
		Validation:      p.cfg.Renderer.Validation,
		Logger:          p.logger.WithField("component", "device"),
	})
	if err != nil {
		return err
	}

	ctx, err := renderer.NewRenderContext(device, renderer.ContextOptions{
		PresentMode:       renderer.PresentModeFromName(p.cfg.Renderer.PresentMode),
		MSAA:              p.cfg.Renderer.MSAA,
		PipelineCachePath: p.cfg.Renderer.PipelineCache,
	})
	if err != nil {
		return err
	}

	shaders := renderer.ShaderPaths{
		Vertex:   p.cfg.Assets.VertexShader,
		Fragment: p.cfg.Assets.FragmentShader,
	}
	scene := renderer.NewQuadScene(ctx, renderer.QuadOptions{
		Shaders: shaders,
		Texture: p.cfg.Assets.Texture,
	})

	cam := camera.New(mgl32.Vec3{0.5, 0.5, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1},
		camera.Options{
			FOV:         p.cfg.Camera.FOV,
			Near:        p.cfg.Camera.Near,
			Far:         p.cfg.Camera.Far,
			Sensitivity: p.cfg.Camera.Sensitivity,
		})

	counter := overlay.New(overlay.Options{
		Title:  p.cfg.Window.Title,
		Target: p.window,
		Logger: p.logger.WithField("component", "overlay"),
	})
	counter.SetSampleCount(ctx.SampleCount())

	opts := engine.Options{
		Context:       ctx,
		Scene:         scene,
		Camera:        cam,
		Overlay:       counter,
		Logger:        p.logger,
		MovementSpeed: p.cfg.Camera.Speed,
	}

	if p.cfg.Renderer.HotReload {
		p.watcher, err = renderer.WatchShaders(p.logger.WithField("component", "shaders"), shaders.Vertex, shaders.Fragment)
		if err != nil {
			p.logger.WithError(err).Warn("shader hot reload disabled")
		} else {
			opts.Watcher = p.watcher
		}
	}

	p.app = engine.NewApplication(opts)
	err = p.app.OnStart()
	if err != nil {
		return errors.CombineErrors(err, p.app.Terminate())
	}
	return nil
}

func (p *playground) handleEvent(event sdl.Event) error {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return p.app.Terminate()
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_MINIMIZED:
			p.app.OnWindowMinimized(true)
		case sdl.WINDOWEVENT_RESTORED:
			p.app.OnWindowMinimized(false)
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			p.app.OnWindowResize()
		}
	case *sdl.KeyboardEvent:
		key, ok := keymap[e.Keysym.Sym]
		if !ok {
			return nil
		}
		if e.Type == sdl.KEYUP {
			p.app.OnKeyRelease(key)
			return nil
		}
		if e.Repeat != 0 {
			return nil
		}
		return p.app.OnKeyPress(key)
	case *sdl.MouseMotionEvent:
		p.app.OnMouseMove(int(e.XRel), int(e.YRel))
	}
	return nil
}

func (p *playground) mainLoop() error {
	last := hrtime.Now()

	for p.app.Running() {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			err := p.handleEvent(event)
			if err != nil {
				return err
			}
		}
		if !p.app.Running() {
			break
		}

		now := hrtime.Now()
		dt := float32((now - last).Seconds())
		last = now

		p.app.OnUpdate(dt)
		err := p.app.OnRender()
		if err != nil {
			return errors.CombineErrors(err, p.app.Terminate())
		}

		if p.app.State() == engine.StateSuspended {
			sdl.Delay(10)
		}
	}

	p.logger.WithField("frames", p.app.Frames()).Info("main loop finished")
	return nil
}

func (p *playground) cleanup() {
	if p.watcher != nil {
		if err := p.watcher.Close(); err != nil {
			p.logger.WithError(err).Warn("closing shader watcher")
		}
	}
	if p.window != nil {
		if err := p.window.Destroy(); err != nil {
			p.logger.WithError(err).Warn("destroying window")
		}
	}
	sdl.Quit()
}

func run() error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}

	logger := logrus.New()
	err = config.ConfigureLogger(logger, cfg.Log)
	if err != nil {
		return err
	}

	p := &playground{cfg: cfg, logger: logger}
	defer p.cleanup()

	err = p.initWindow()
	if err != nil {
		return err
	}

	err = p.initRenderer()
	if err != nil {
		return err
	}

	return p.mainLoop()
}

func main() {
	runtime.LockOSThread()

	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}
