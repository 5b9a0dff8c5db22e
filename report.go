package main

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/regginator/hashbrute/digest"
)

// One finished (or interrupted) engine run
type searchRun struct {
	Name    string
	Threads int // 0 for the sequential engine
	Found   map[string]digest.Found
	Elapsed time.Duration
	Err     error
}

func printTargets(targets digest.Targets) {
	hashes := make([]string, 0, len(targets))
	for h := range targets {
		hashes = append(hashes, h)
	}
	slices.Sort(hashes)

	items := make([]pterm.BulletListItem, 0, len(hashes))
	for _, h := range hashes {
		items = append(items, pterm.BulletListItem{
			Level:       0,
			Text:        fmt.Sprintf("%s (%s)", h, targets[h]),
			BulletStyle: pterm.NewStyle(pterm.FgCyan),
		})
	}

	fmt.Println()
	pterm.Info.Printf("Targets to crack (%d):\n", len(targets))
	err := pterm.DefaultBulletList.WithItems(items).Render()
	_ = err
}

// Rows of the found table, sorted by digest so both engines print in the same order
func foundRows(found map[string]digest.Found) pterm.TableData {
	hashes := make([]string, 0, len(found))
	for h := range found {
		hashes = append(hashes, h)
	}
	slices.Sort(hashes)

	rows := pterm.TableData{{"Digest", "Algorithm", "Password"}}
	for _, h := range hashes {
		f := found[h]
		rows = append(rows, []string{f.Digest, f.Algorithm.String(), f.Plaintext})
	}

	return rows
}

func printResults(run searchRun) {
	if len(run.Found) == 0 {
		pterm.Warning.Println("No passwords were found.")
	} else {
		pterm.Success.Printf("Found passwords (%d):\n", len(run.Found))
		err := pterm.DefaultTable.WithHasHeader().WithData(foundRows(run.Found)).Render()
		_ = err
	}

	pterm.Info.Printf("Time elapsed: %s\n", run.Elapsed.Round(time.Millisecond))
}

// How many times faster b was than a, 0 if either is missing
func speedup(a, b time.Duration) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	return a.Seconds() / b.Seconds()
}

func comparisonRows(runs []searchRun) pterm.TableData {
	rows := pterm.TableData{{"Engine", "Threads", "Time", "Found"}}
	for _, run := range runs {
		threads := "1"
		if run.Threads > 0 {
			threads = strconv.Itoa(run.Threads)
		}
		rows = append(rows, []string{run.Name, threads, run.Elapsed.Round(time.Millisecond).String(), strconv.Itoa(len(run.Found))})
	}
	return rows
}

// Only meaningful with exactly one sequential and one parallel run
func printComparison(runs []searchRun) {
	if len(runs) != 2 {
		return
	}
	seq, par := runs[0], runs[1]

	fmt.Println()
	pterm.DefaultSection.Println("Results")
	err := pterm.DefaultTable.WithHasHeader().WithData(comparisonRows(runs)).Render()
	_ = err

	if par.Elapsed < seq.Elapsed {
		pterm.Success.Printf("Multi-threading was %.2fx faster.\n", speedup(seq.Elapsed, par.Elapsed))
	} else {
		pterm.Info.Println("Multi-threading was not faster in this case (likely due to overhead).")
	}
}
