package spinner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner renders an animated progress indicator on one terminal line.
type Spinner struct {
	w    io.Writer
	mu   sync.Mutex
	msg  string
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// Start displays a spinner with the given message on w.
func Start(w io.Writer, message string) *Spinner {
	s := &Spinner{
		w:    w,
		msg:  message,
		done: make(chan struct{}),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		i := 0
		for {
			select {
			case <-s.done:
				s.clear()
				return
			case <-time.After(80 * time.Millisecond):
				s.mu.Lock()
				msg := s.msg
				s.mu.Unlock()
				fmt.Fprintf(s.w, "\r%s %s", frames[i%len(frames)], msg) //nolint:errcheck
				i++
			}
		}
	}()

	return s
}

// SetMessage swaps the spinner text, clearing leftovers from a longer
// previous message.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if width := runewidth.StringWidth(s.msg) - runewidth.StringWidth(message); width > 0 {
		fmt.Fprintf(s.w, "\r%s", strings.Repeat(" ", runewidth.StringWidth(s.msg)+2)) //nolint:errcheck
	}
	s.msg = message
}

// Stop halts the animation and clears the line. Safe to call twice.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

// clear erases the spinner line. Width is display width, not byte length, so
// wide runes are fully overwritten.
func (s *Spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", runewidth.StringWidth(s.msg)+2)) //nolint:errcheck
}
