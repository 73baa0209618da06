package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/deidaraiorek/snowstem/internal/stemming"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newBar(w io.Writer, max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

// barListener draws a single document's pass as a 0-100 progress bar.
type barListener struct {
	bar *progressbar.ProgressBar
}

func newBarListener(w io.Writer) *barListener {
	return &barListener{bar: newBar(w, 100, "[cyan]Stemming[reset]")}
}

func (l *barListener) OnProgress(percent int) {
	_ = l.bar.Set(percent)
}

func (l *barListener) OnStatus(message string) {
	l.bar.Describe("[cyan]" + message + "[reset]")
}

// passListener picks the listener for a single-document pass: a progress bar
// on a terminal, structured debug logs otherwise.
func (a *app) passListener(w io.Writer) stemming.Listener {
	if isTerminal(w) {
		return newBarListener(w)
	}
	return stemming.LogListener{Logger: a.logger}
}
