// Package overlay reports frame timing for the playground. It has no pipeline of its own: the
// frame rate goes to the window title and the log.
package overlay

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vkngwrapper/playground/engine"
)

// reportInterval is the length of one frame counting window in seconds.
const reportInterval float32 = 1

// TitleSetter receives the formatted overlay text. *sdl.Window satisfies it.
type TitleSetter interface {
	SetTitle(title string)
}

type Options struct {
	Title  string
	Target TitleSetter
	Logger logrus.FieldLogger
}

// FPSCounter counts rendered frames over one second windows.
type FPSCounter struct {
	title   string
	target  TitleSetter
	logger  logrus.FieldLogger
	visible bool

	elapsed     float32
	frames      int
	fps         int
	sampleCount int
}

var _ engine.Overlay = (*FPSCounter)(nil)

func New(opts Options) *FPSCounter {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.WithField("component", "overlay")
	}

	return &FPSCounter{
		title:       opts.Title,
		target:      opts.Target,
		logger:      logger,
		visible:     true,
		sampleCount: 1,
	}
}

func (o *FPSCounter) Visible() bool    { return o.visible }
func (o *FPSCounter) FPS() int         { return o.fps }
func (o *FPSCounter) SampleCount() int { return o.sampleCount }

// OnUpdate advances the counting window by dt seconds. When a window closes, the frames
// rendered during it become the reported rate.
func (o *FPSCounter) OnUpdate(dt float32) {
	o.elapsed += dt
	if o.elapsed < reportInterval {
		return
	}

	o.fps = o.frames
	o.frames = 0
	for o.elapsed >= reportInterval {
		o.elapsed -= reportInterval
	}

	if !o.visible {
		return
	}

	o.logger.WithFields(logrus.Fields{
		"fps":     o.fps,
		"samples": o.sampleCount,
	}).Debug("frame rate")
	o.publish()
}

// OnRender counts a frame. It reports whether the overlay drew anything.
func (o *FPSCounter) OnRender() bool {
	o.frames++
	return o.visible
}

func (o *FPSCounter) OnKeyPress(key engine.Key) {
	if key != engine.KeyF11 {
		return
	}

	o.visible = !o.visible
	o.publish()
}

func (o *FPSCounter) RebuildPipeline() error {
	return nil
}

func (o *FPSCounter) SetSampleCount(samples int) {
	o.sampleCount = samples
	o.publish()
}

// Text is the string the overlay currently shows.
func (o *FPSCounter) Text() string {
	if !o.visible {
		return o.title
	}

	if o.sampleCount > 1 {
		return fmt.Sprintf("%s - %d fps - MSAA %dx", o.title, o.fps, o.sampleCount)
	}
	return fmt.Sprintf("%s - %d fps", o.title, o.fps)
}

func (o *FPSCounter) publish() {
	if o.target != nil {
		o.target.SetTitle(o.Text())
	}
}
