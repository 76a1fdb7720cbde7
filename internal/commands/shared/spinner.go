// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shared

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/term"
)

// spinnerFrames defines the animation frames for the spinner
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner displays an animated spinner with elapsed time during long operations.
// On anything but a terminal it prints the message once.
type Spinner struct {
	mu        sync.Mutex
	out       io.Writer
	message   string
	detail    string
	startTime time.Time
	active    bool
	done      chan struct{}
	frameIdx  int
	isTTY     bool
}

// NewSpinner creates a spinner writing to out.
func NewSpinner(out io.Writer) *Spinner {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return &Spinner{out: out, isTTY: isTTY}
}

// Start begins the spinner animation with the given message.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return
	}

	s.message = message
	s.startTime = time.Now()
	s.active = true
	s.done = make(chan struct{})
	s.frameIdx = 0
	s.detail = ""

	if !s.isTTY {
		fmt.Fprintf(s.out, "%s\n", message)
		return
	}

	s.render()
	go s.animate()
}

// Stop stops the spinner, clears the line and returns the elapsed time.
func (s *Spinner) Stop() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return 0
	}

	elapsed := time.Since(s.startTime)
	s.active = false
	close(s.done)

	if s.isTTY {
		fmt.Fprint(s.out, "\r\033[K")
	}

	return elapsed
}

// SetDetail replaces the text shown after the message on the next frame.
func (s *Spinner) SetDetail(detail string) {
	s.mu.Lock()
	s.detail = detail
	s.mu.Unlock()
}

func (s *Spinner) animate() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.active {
				s.frameIdx = (s.frameIdx + 1) % len(spinnerFrames)
				s.render()
			}
			s.mu.Unlock()
		}
	}
}

// render draws the current spinner state (must be called with mu held)
func (s *Spinner) render() {
	frame := spinnerFrames[s.frameIdx]
	if !ColorEnabled() {
		frame = "..."
	}

	status := formatElapsed(time.Since(s.startTime))
	if s.detail != "" {
		status = s.detail + ", " + status
	}
	fmt.Fprintf(s.out, "\r\033[K%s %s %s",
		s.message,
		Muted.Render(frame),
		Muted.Render("("+status+")"))
}

// ByteCounter reports the bytes read through its readers on a spinner.
// It is safe to share between the readers of one request.
type ByteCounter struct {
	spinner *Spinner
	total   atomic.Int64
}

// NewByteCounter returns a counter reporting to s. A nil s only counts.
func NewByteCounter(s *Spinner) *ByteCounter {
	return &ByteCounter{spinner: s}
}

// Wrap returns r with every read counted.
func (c *ByteCounter) Wrap(r io.Reader) io.Reader {
	return &countingReader{r: r, counter: c}
}

// Total returns the number of bytes read so far.
func (c *ByteCounter) Total() int64 {
	return c.total.Load()
}

func (c *ByteCounter) add(n int) {
	total := c.total.Add(int64(n))
	if c.spinner != nil {
		c.spinner.SetDetail(FormatBytes(total) + " sent")
	}
}

type countingReader struct {
	r       io.Reader
	counter *ByteCounter
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.counter.add(n)
	}
	return n, err
}

// FormatBytes formats n with a binary unit (e.g., "512 B", "1.5 KiB").
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// formatElapsed formats a duration for display (e.g., "12s", "1m 23s")
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
