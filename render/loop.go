package render

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const DFLT_FPS = 30

type Looper struct {
	quit     chan bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       *sync.WaitGroup
	c        chan os.Signal
	start    time.Time
	fps      int
	renderer *Renderer
}

func NewLooper(r *Renderer, fps int) *Looper {
	if fps <= 0 {
		fps = DFLT_FPS
	}
	return &Looper{renderer: r, fps: fps, quit: make(chan bool, 1)}
}

func (l *Looper) refresh() {
	defer l.wg.Done()
	delta := 1000 * time.Millisecond / time.Duration(l.fps)
	ticker := time.NewTicker(delta)
	defer ticker.Stop()

	fd := float32(delta)

	for {
		select {
		case <-ticker.C:
			t := time.Now()
			if err := l.renderer.Render(t.Sub(l.start)); err != nil {
				log.Warn().Err(err).Msg("frame dropped")
			}

			// Shorten the next tick by the time the frame took.
			delta = time.Duration(fd) - time.Since(t)
			if delta.Milliseconds() > 0 {
				ticker.Reset(delta)
			}

		case <-l.quit:
			l.cancel()
			return

		case sig := <-l.c:
			log.Info().Str("signal", sig.String()).Msg("stopping render loop")
			l.cancel()
			return

		case <-l.ctx.Done():
			return
		}
	}
}

// Start runs the loop until ctx is done, Stop is called or the process is
// interrupted.
func (l *Looper) Start(ctx context.Context) {
	l.ctx, l.cancel = context.WithCancel(ctx)

	l.wg = &sync.WaitGroup{}
	l.wg.Add(1)

	l.c = make(chan os.Signal, 1)
	signal.Notify(l.c, os.Interrupt)
	defer func() {
		signal.Stop(l.c)
		l.cancel()
	}()

	l.start = time.Now()
	go l.refresh()

	l.wg.Wait()
}

// Stop ends a running loop. It does not wait for Start to return.
func (l *Looper) Stop() {
	select {
	case l.quit <- true:
	default:
	}
}
