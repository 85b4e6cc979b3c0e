package progress

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
)

// Bar renders updates from a registry channel as a single-line terminal
// progress bar on stderr. It stays silent when stderr is not a terminal.
type Bar struct {
	enabled         bool
	lastRenderWidth int
	bar             progress.Model
}

func NewBar() *Bar {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 36

	if cols, err := strconv.Atoi(strings.TrimSpace(os.Getenv("COLUMNS"))); err == nil && cols > 0 {
		width := cols - 44
		if width < 16 {
			width = 16
		}
		if width > 64 {
			width = 64
		}
		bar.Width = width
	}

	return &Bar{
		enabled: isTerminal(os.Stderr),
		bar:     bar,
	}
}

// Consume renders every update until the channel closes, then finishes the
// line. Run it in its own goroutine.
func (b *Bar) Consume(updates <-chan Update) {
	for update := range updates {
		b.render(update)
	}
	b.close()
}

func (b *Bar) render(update Update) {
	if !b.enabled {
		return
	}
	percent := float64(update.Progress) / 100
	if percent < 0 {
		percent = 0
	}
	if percent > 1 {
		percent = 1
	}
	label := strings.TrimSpace(update.Message)
	if label == "" {
		label = string(update.Stage)
	}
	line := fmt.Sprintf("%s %3d%% %s", b.bar.ViewAs(percent), update.Progress, label)
	if update.TotalRecords > 0 {
		line += fmt.Sprintf(" %d/%d", update.CurrentRecord, update.TotalRecords)
	}
	pad := ""
	if b.lastRenderWidth > len(line) {
		pad = strings.Repeat(" ", b.lastRenderWidth-len(line))
	}
	fmt.Fprintf(os.Stderr, "\r%s%s", line, pad)
	b.lastRenderWidth = len(line)
}

func (b *Bar) close() {
	if !b.enabled || b.lastRenderWidth == 0 {
		return
	}
	fmt.Fprint(os.Stderr, "\n")
	b.lastRenderWidth = 0
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("TERM")), "dumb") {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
