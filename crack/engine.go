package crack

import (
	"context"

	"github.com/regginator/hashbrute/digest"
	"github.com/regginator/hashbrute/keyspace"
)

// Candidates processed between progress reports and context polls
const DefaultBatch = 4096

// Progress receives the running count of checked candidates. The parallel engine calls it from
// several goroutines at once, and counts may arrive slightly out of order
type Progress interface {
	Report(checked, total uint64)
}

type ProgressFunc func(checked, total uint64)

func (f ProgressFunc) Report(checked, total uint64) { f(checked, total) }

// Engine holds the parameters shared by the sequential and parallel searches. The zero value
// searches the default keyspace without progress reporting
type Engine struct {
	Keyspace *keyspace.Keyspace
	Progress Progress
	Batch    uint64

	// Called once per newly recovered digest, possibly from several goroutines
	OnFound func(digest.Found)
}

func (e *Engine) keyspace() *keyspace.Keyspace {
	if e.Keyspace == nil {
		return keyspace.Default()
	}
	return e.Keyspace
}

func (e *Engine) batch() uint64 {
	if e.Batch == 0 {
		return DefaultBatch
	}
	return e.Batch
}

func (e *Engine) report(checked, total uint64) {
	if e.Progress != nil {
		e.Progress.Report(checked, total)
	}
}

func (e *Engine) record(results *Results, f digest.Found) {
	if results.Insert(f) && e.OnFound != nil {
		e.OnFound(f)
	}
}

// Single-threaded search of the default keyspace
func SequentialSearch(targets digest.Targets) map[string]digest.Found {
	found, _ := new(Engine).Sequential(context.Background(), targets)
	return found
}

// Search of the default keyspace with the given number of workers
func ParallelSearch(targets digest.Targets, workers int) map[string]digest.Found {
	found, _ := new(Engine).Parallel(context.Background(), targets, workers)
	return found
}
