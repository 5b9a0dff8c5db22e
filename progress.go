package main

import (
	"sync"

	"github.com/pterm/pterm"
)

// crack.Progress backed by a PTerm progress bar. Workers report cumulative counts that can arrive
// out of order, so only forward movement is drawn
type barProgress struct {
	accessMutex sync.Mutex
	bar         *pterm.ProgressbarPrinter
	shown       uint64

	// Candidates per bar step, above 1 only for keyspaces over maxBarTotal
	scale uint64
}

// pterm multiplies the count by the bar width, so bigger totals are drawn in scaled steps
const maxBarTotal uint64 = 1 << 40

func newBarProgress(title string, total uint64) (*barProgress, error) {
	scale := total/maxBarTotal + 1

	bar, err := pterm.DefaultProgressbar.WithTotal(int(total / scale)).WithTitle(title).WithShowCount(true).WithShowElapsedTime(true).WithShowPercentage(true).Start()
	if err != nil {
		return nil, err
	}

	return &barProgress{bar: bar, scale: scale}, nil
}

func (p *barProgress) Report(checked, total uint64) {
	p.accessMutex.Lock()
	defer p.accessMutex.Unlock()

	if checked <= p.shown {
		return
	}

	if steps := checked/p.scale - p.shown/p.scale; steps > 0 {
		p.bar.Add(int(steps))
	}
	p.shown = checked
}

func (p *barProgress) Stop() {
	p.accessMutex.Lock()
	defer p.accessMutex.Unlock()

	_, err := p.bar.Stop()
	_ = err
}
