// Package progress renders a terminal spinner for long collection runs.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

type Tracker struct {
	w       io.Writer
	total   int
	current int
	message string
	mu      sync.Mutex
	start   time.Time
	done    chan struct{}
	stopped sync.Once
}

// New starts rendering a spinner to w. Pass total 0 when the file count is
// unknown up front.
func New(w io.Writer, total int, message string) *Tracker {
	t := &Tracker{
		w:       w,
		total:   total,
		message: message,
		start:   time.Now(),
		done:    make(chan struct{}),
	}
	go t.render()
	return t
}

func (t *Tracker) render() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	spinner := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	frame := 0

	for {
		select {
		case <-t.done:
			t.mu.Lock()
			elapsed := time.Since(t.start)
			fmt.Fprintf(t.w, "\r✓ %s (%d files, %s)          \n",
				t.message, t.current, elapsed.Round(time.Millisecond))
			t.mu.Unlock()
			return

		case <-ticker.C:
			t.mu.Lock()
			if t.total > 0 {
				percent := float64(t.current) / float64(t.total) * 100
				fmt.Fprintf(t.w, "\r%s %s [%d/%d] %.0f%%  ",
					spinner[frame%len(spinner)], t.message, t.current, t.total, percent)
			} else {
				fmt.Fprintf(t.w, "\r%s %s [%d files]  ",
					spinner[frame%len(spinner)], t.message, t.current)
			}
			t.mu.Unlock()
			frame++
		}
	}
}

func (t *Tracker) Increment() {
	t.mu.Lock()
	t.current++
	t.mu.Unlock()
}

func (t *Tracker) Finish() {
	t.stopped.Do(func() { close(t.done) })
	time.Sleep(time.Millisecond)
}
