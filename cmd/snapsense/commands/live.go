package commands

import (
	"fmt"
	"io"

	"github.com/snapsense/snapsense/pkg/cli"
)

const (
	liveWidth  = 80
	liveHeight = 22
)

// liveView renders the in-terminal dashboard for `run --live`: a
// meter section fed by the engine's diagnostics and a log section fed
// by slog through a LogWriter. The tick loop calls Update and Render;
// the view itself holds no locks beyond the LogWriter's.
type liveView struct {
	frame cli.Frame
	logs  *cli.LogWriter

	score     float64
	floor     float64
	threshold float64
	events    int
}

func newLiveView(session string, threshold float64) *liveView {
	v := &liveView{
		logs:      cli.NewLogWriter(32),
		threshold: threshold,
	}
	v.frame = cli.Frame{
		Styles: cli.NewStyles(cli.DefaultTheme),
		Title:  "snapsense",
		Status: session,
		Help:   "ctrl-c to stop",
		Sections: []cli.Section{
			{Label: "Detector", Content: v.detectorLines},
			{Label: "Log", Content: v.logs.Lines},
		},
	}
	return v
}

// LogOutput returns the writer slog should log to while the view owns
// the terminal.
func (v *liveView) LogOutput() io.Writer { return v.logs }

func (v *liveView) Update(score, floor float64, events int) {
	v.score = score
	v.floor = floor
	v.events = events
}

func (v *liveView) detectorLines() []string {
	return []string{
		cli.ScoreLine("score", v.score, v.threshold, 44),
		cli.ScoreLine("floor", v.floor, v.threshold, 44),
		fmt.Sprintf("events %d", v.events),
	}
}

// Render redraws the full frame in place.
func (v *liveView) Render(w io.Writer) {
	fmt.Fprint(w, "\033[H\033[2J"+v.frame.Render(liveWidth, liveHeight)+"\n")
}
