package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"golang.org/x/term"
)

// progressBar redraws a single stderr line per search iteration. It is a
// no-op when disabled or when stderr is not a terminal.
type progressBar struct {
	out     *os.File
	enabled bool
	drawn   bool
	bar     progress.Model
}

func newProgressBar(out *os.File, enabled bool) *progressBar {
	return &progressBar{
		out:     out,
		enabled: enabled && term.IsTerminal(int(out.Fd())),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// Update draws percent, which the search keeps in [0, 100].
func (p *progressBar) Update(percent int) {
	if !p.enabled {
		return
	}
	p.drawn = true
	fmt.Fprintf(p.out, "\r  %s", p.bar.ViewAs(float64(percent)/100))
}

// Finish ends the progress line. A successful run is drawn at 100%.
func (p *progressBar) Finish(ok bool) {
	if ok {
		p.Update(100)
	}
	if p.enabled && p.drawn {
		fmt.Fprintln(p.out)
	}
}
