package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Spinner struct {
	chars    []string
	delay    time.Duration
	message  string
	out      io.Writer
	active   bool
	mu       sync.Mutex
	stopChan chan bool
	done     chan struct{}
}

// New returns a spinner drawing on stderr, so it never mixes with report
// output written to stdout.
func New(message string) *Spinner {
	return NewWithWriter(os.Stderr, message)
}

func NewWithWriter(out io.Writer, message string) *Spinner {
	return &Spinner{
		chars:    []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		delay:    100 * time.Millisecond,
		message:  message,
		out:      out,
		stopChan: make(chan bool, 1),
	}
}

func (s *Spinner) Start() {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.delay)
		defer ticker.Stop()

		i := 0
		for {
			s.mu.Lock()
			fmt.Fprintf(s.out, "\r%s %s", s.chars[i%len(s.chars)], s.message)
			s.mu.Unlock()
			i++

			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	done := s.done
	s.mu.Unlock()

	s.stopChan <- true
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	// Clear the spinner line completely
	fmt.Fprint(s.out, "\r"+strings.Repeat(" ", len(s.message)+10)+"\r")
}

func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}
