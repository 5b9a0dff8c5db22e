package crack

import (
	"context"

	"github.com/regginator/hashbrute/digest"
)

// Sequential walks the keyspace in enumeration order on the calling goroutine, stopping early once
// every target is recovered. On cancellation it returns what was found so far with ctx.Err()
func (e *Engine) Sequential(ctx context.Context, targets digest.Targets) (map[string]digest.Found, error) {
	results := NewResults(len(targets))
	if len(targets) == 0 {
		return results.Entries(), nil
	}

	ks := e.keyspace()
	total := ks.Size()
	batch := e.batch()

	var checked, reported uint64
	var err error
	for _, cand := range ks.Range(0, total) {
		if f, ok := digest.Match(cand, targets); ok {
			e.record(results, f)
		}
		checked++

		if results.Stopped() {
			break
		}
		if checked%batch == 0 {
			e.report(checked, total)
			reported = checked
			if err = ctx.Err(); err != nil {
				break
			}
		}
	}

	if checked != reported {
		e.report(checked, total)
	}

	return results.Entries(), err
}
