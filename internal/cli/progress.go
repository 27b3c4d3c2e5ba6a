package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Progress draws a progress bar over rows. Update is safe for concurrent use.
type Progress struct {
	bar  *progressbar.ProgressBar
	mu   sync.Mutex
	seen int
}

// NewProgress creates a bar for total rows writing to w.
func NewProgress(w io.Writer, total int, description string) *Progress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return &Progress{bar: bar}
}

// Update moves the bar to done. Calls reporting fewer rows than already shown
// are ignored.
func (p *Progress) Update(done, _ int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if done <= p.seen {
		return
	}
	if err := p.bar.Add(done - p.seen); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
	p.seen = done
}

// Done returns how many rows the bar shows.
func (p *Progress) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seen
}
