package crack

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/regginator/hashbrute/digest"
	"github.com/regginator/hashbrute/keyspace"
)

// Work units handed out per worker. More than one so a worker that lands on a cheap tail still has
// something left to pick up, but every unit has the same size
const unitsPerWorker = 4

// A half-open index range [start, end)
type span struct {
	start, end uint64
}

// Split [0, total) into at most n contiguous spans of equal size, the last one may be shorter
func partition(total uint64, n int) []span {
	if n < 1 {
		n = 1
	}

	size := total / uint64(n)
	if total%uint64(n) != 0 {
		size++
	}
	if size == 0 {
		return nil
	}

	spans := make([]span, 0, n)
	for start := uint64(0); start < total; {
		end := total
		if total-start > size {
			end = start + size
		}

		spans = append(spans, span{start, end})
		start = end
	}

	return spans
}

// Parallel splits the keyspace into equal work units and runs them on a pool of workers goroutines.
// Workers only share the Results handle: a hit is inserted under its lock, and the insert that
// completes the target set raises the stop signal every worker polls once per candidate. Units not
// yet handed out when that happens are dropped
func (e *Engine) Parallel(ctx context.Context, targets digest.Targets, workers int) (map[string]digest.Found, error) {
	if workers < 1 {
		workers = 1
	}

	results := NewResults(len(targets))
	if len(targets) == 0 {
		return results.Entries(), nil
	}

	ks := e.keyspace()
	units := partition(ks.Size(), workers*unitsPerWorker)

	unitChan := make(chan span, workers)
	var checked atomic.Uint64
	var workerWg sync.WaitGroup

	for w := 0; w < workers; w++ {
		workerWg.Add(1)

		go func() {
			defer workerWg.Done()

			buf := make([]byte, ks.Length())
			for u := range unitChan {
				e.scan(ctx, ks, u, targets, results, &checked, buf)
			}
		}()
	}

dispatch:
	for _, u := range units {
		if results.Stopped() {
			break
		}

		select {
		case unitChan <- u:
		case <-ctx.Done():
			results.Stop()
			break dispatch
		}
	}

	close(unitChan)
	workerWg.Wait()

	if results.Stopped() && !results.Complete() {
		return results.Entries(), ctx.Err()
	}
	return results.Entries(), nil
}

// Check every candidate of u in order until the unit ends or the stop signal is raised
func (e *Engine) scan(
	ctx context.Context,
	ks *keyspace.Keyspace,
	u span,
	targets digest.Targets,
	results *Results,
	checked *atomic.Uint64,
	buf []byte,
) {
	total := ks.Size()
	batch := e.batch()

	var local uint64
	flush := func() {
		if local > 0 {
			e.report(checked.Add(local), total)
			local = 0
		}
	}
	defer flush()

	for i := u.start; i < u.end; i++ {
		if results.Stopped() {
			return
		}

		if f, ok := digest.Match(ks.Decode(i, buf), targets); ok {
			e.record(results, f)
		}

		local++
		if local == batch {
			flush()
			if ctx.Err() != nil {
				results.Stop()
			}
		}
	}
}
