package dispatch

import (
	"context"
	"enricher/pkg/domain"
	"enricher/pkg/logger"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const barWidth = 30

// Progress receives one tick per completed batch. Ticks are delivered from a
// single goroutine.
type Progress interface {
	Start(total int)
	Tick(outcome domain.Outcome)
	Finish()
}

// NewProgress returns a terminal progress bar drawn on out when enabled and
// out is a terminal, and a log based reporter otherwise. Debug logging also
// selects the log reporter, since its output would break the redrawn line.
func NewProgress(ctx context.Context, out *os.File, enabled bool) Progress {
	if enabled && out != nil && !logger.IsDebug(ctx) && term.IsTerminal(int(out.Fd())) {
		return NewBar(out)
	}

	return &logProgress{ctx: ctx}
}

type logProgress struct {
	ctx   context.Context
	total int
	done  int
}

func (p *logProgress) Start(total int) {
	p.total = total
	p.done = 0
}

func (p *logProgress) Tick(o domain.Outcome) {
	p.done++
	logger.Info(p.ctx, "batch completed",
		zap.Int("batch", o.Batch.Number()),
		zap.String("outcome", string(o.Kind)),
		zap.Int("done", p.done),
		zap.Int("total", p.total))
}

func (p *logProgress) Finish() {}

// Bar draws a single-line progress bar on a writer.
type Bar struct {
	out    io.Writer
	bar    *progressbar.ProgressBar
	failed int
}

// NewBar returns a progress bar drawing on out.
func NewBar(out io.Writer) *Bar {
	return &Bar{out: out}
}

// Start resets the bar for total batches and draws it empty.
func (b *Bar) Start(total int) {
	b.failed = 0
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.out),
		progressbar.OptionSetDescription(b.describe()),
		progressbar.OptionSetWidth(barWidth),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("batches"),
		progressbar.OptionShowIts(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Tick advances the bar by one batch and counts it when it did not succeed.
func (b *Bar) Tick(o domain.Outcome) {
	if o.Kind != domain.OutcomeSucceeded {
		b.failed++
		b.bar.Describe(b.describe())
	}
	_ = b.bar.Add(1)
}

// Finish ends the bar line. An interrupted run leaves the bar where it stopped.
func (b *Bar) Finish() {
	_, _ = fmt.Fprintln(b.out)
}

func (b *Bar) describe() string {
	return fmt.Sprintf("batches (%d not succeeded)", b.failed)
}
