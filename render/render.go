// Package render pushes a strip's pixel buffer to hardware at a steady
// frame rate. It is the single owner of a strip while the loop runs: every
// access from other goroutines goes through Renderer.Do.
package render

import (
	"sync"
	"time"

	"github.com/coreman2200/ws28xx/model"
	"github.com/coreman2200/ws28xx/strip"
)

// FrameFunc updates the pixel buffer before a frame is sent. elapsed is the
// time since the loop started.
type FrameFunc func(elapsed time.Duration, px []model.Pixel)

// Renderer serialises all operations on one strip.
type Renderer struct {
	mu    sync.Mutex
	strip *strip.Strip
	frame FrameFunc
	sinks []func([]model.Pixel)

	frames uint64
	errs   uint64
}

func NewRenderer(s *strip.Strip, frame FrameFunc) *Renderer {
	return &Renderer{strip: s, frame: frame}
}

// OnFrame registers f to receive a copy of every frame that was sent. Each
// frame is a fresh slice that f may keep.
func (r *Renderer) OnFrame(f func([]model.Pixel)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, f)
}

// Do runs f with exclusive access to the strip.
func (r *Renderer) Do(f func(s *strip.Strip)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f(r.strip)
}

// Render runs the frame func, sends the pixel buffer and hands the frame to
// the sinks.
func (r *Renderer) Render(elapsed time.Duration) error {
	r.mu.Lock()
	if r.frame != nil {
		r.frame(elapsed, r.strip.Pixels())
	}
	if err := r.strip.Update(); err != nil {
		r.errs++
		r.mu.Unlock()
		return err
	}
	r.frames++
	var buf []model.Pixel
	if len(r.sinks) > 0 {
		buf = append([]model.Pixel(nil), r.strip.Pixels()...)
	}
	sinks := r.sinks
	r.mu.Unlock()

	for _, f := range sinks {
		f(buf)
	}
	return nil
}

// Clear blanks the strip.
func (r *Renderer) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strip.FillAll(0)
	return r.strip.Update()
}

// Stats reports the frames sent and the failed updates so far.
func (r *Renderer) Stats() (frames, errs uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames, r.errs
}
