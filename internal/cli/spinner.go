package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner animates a status line on w until stopped or until ctx is done.
// On anything but a terminal it stays silent, so piped output and logs are
// never littered with carriage returns.
type spinner struct {
	w       io.Writer
	animate bool

	mu    sync.Mutex
	msg   string
	width int // widest message drawn, for clearing

	quit chan struct{}
	done chan struct{}
	once sync.Once
}

// startSpinner starts a spinner on w, animating only if w is a terminal.
func startSpinner(ctx context.Context, w io.Writer, msg string) *spinner {
	return newSpinner(ctx, w, msg, isTerminal(w))
}

func newSpinner(ctx context.Context, w io.Writer, msg string, animate bool) *spinner {
	s := &spinner{
		w:       w,
		animate: animate,
		msg:     msg,
		width:   len(msg),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *spinner) run(ctx context.Context) {
	defer close(s.done)
	if !s.animate {
		select {
		case <-ctx.Done():
		case <-s.quit:
		}
		return
	}

	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case <-ticker.C:
			s.draw(spinnerFrames[i%len(spinnerFrames)])
		}
	}
}

func (s *spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), styleDim.Render(fmt.Sprintf("%-*s", s.width, s.msg)))
}

// set replaces the message shown next to the spinner.
func (s *spinner) set(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msg = msg
	s.width = max(s.width, len(msg))
}

// stop halts the animation and clears the line. It is safe to call more
// than once.
func (s *spinner) stop() {
	s.once.Do(func() { close(s.quit) })
	<-s.done
	if !s.animate {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width+2))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
