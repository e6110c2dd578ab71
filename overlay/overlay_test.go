package overlay

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/playground/engine"
)

type titleRecorder struct {
	titles []string
}

func (r *titleRecorder) SetTitle(title string) {
	r.titles = append(r.titles, title)
}

func (r *titleRecorder) last() string {
	if len(r.titles) == 0 {
		return ""
	}
	return r.titles[len(r.titles)-1]
}

func newCounter() (*FPSCounter, *titleRecorder) {
	logger, _ := test.NewNullLogger()
	recorder := &titleRecorder{}
	return New(Options{Title: "Playground", Target: recorder, Logger: logger}), recorder
}

func TestCountsFramesPerSecond(t *testing.T) {
	counter, recorder := newCounter()

	for i := 0; i < 60; i++ {
		require.True(t, counter.OnRender())
		counter.OnUpdate(0.016)
	}
	require.Equal(t, 0, counter.FPS())
	require.Empty(t, recorder.titles)

	counter.OnRender()
	counter.OnUpdate(0.1)

	require.Equal(t, 61, counter.FPS())
	require.Equal(t, "Playground - 61 fps", recorder.last())

	// next window starts from zero
	counter.OnRender()
	counter.OnUpdate(1)
	require.Equal(t, 1, counter.FPS())
}

func TestToggleVisibility(t *testing.T) {
	counter, recorder := newCounter()
	require.True(t, counter.Visible())

	counter.OnKeyPress(engine.KeyW)
	require.True(t, counter.Visible())
	require.Empty(t, recorder.titles)

	counter.OnKeyPress(engine.KeyF11)
	require.False(t, counter.Visible())
	require.False(t, counter.OnRender())
	require.Equal(t, "Playground", recorder.last())

	counter.OnUpdate(1)
	require.Len(t, recorder.titles, 1)

	counter.OnKeyPress(engine.KeyF11)
	require.True(t, counter.Visible())
	require.Equal(t, "Playground - 1 fps", recorder.last())
}

func TestSampleCountInTitle(t *testing.T) {
	counter, recorder := newCounter()

	counter.SetSampleCount(4)
	require.Equal(t, 4, counter.SampleCount())
	require.Equal(t, "Playground - 0 fps - MSAA 4x", recorder.last())

	counter.SetSampleCount(1)
	require.Equal(t, "Playground - 0 fps", recorder.last())
	require.NoError(t, counter.RebuildPipeline())
}

func TestLogsRateAtDebug(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	counter := New(Options{Title: "Playground", Logger: logger})

	counter.OnRender()
	counter.OnUpdate(1.5)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, "frame rate", entry.Message)
	require.Equal(t, 1, entry.Data["fps"])
}
