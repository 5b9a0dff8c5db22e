package hashlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/regginator/hashbrute/digest"
)

// Builds a digest.Targets set from newline separated hash values

// A skipped line. Malformed lines never abort a read
type Warning struct {
	Line  int
	Value string
	Err   error
}

func (w Warning) Error() string {
	return fmt.Sprintf("line %d: skipping %q: %s", w.Line, w.Value, w.Err)
}

func (w Warning) Unwrap() error {
	return w.Err
}

// Blank lines and lines starting with '#' are ignored without a warning
func lineIsHash(line string) bool {
	line = strings.TrimSpace(line)
	return line != "" && !strings.HasPrefix(line, "#")
}

// Lines longer than this can't be a digest, they are skipped without being buffered whole
const maxLineLen = 64 * 1024

var ErrLineTooLong = errors.New("line too long")

// Read hashes from r into targets. The returned error is only set when r itself fails, in which
// case targets holds everything read up to that point
func Read(r io.Reader, targets digest.Targets) ([]Warning, error) {
	var warnings []Warning

	reader := bufio.NewReaderSize(r, maxLineLen)

	lineNum := 0
	for {
		line, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break
		} else if err != nil {
			return warnings, fmt.Errorf("error reading hash list: %w", err)
		}
		lineNum++

		if isPrefix {
			head := string(line[:64]) + "..."
			for isPrefix && err == nil {
				_, isPrefix, err = reader.ReadLine()
			}
			warnings = append(warnings, Warning{Line: lineNum, Value: head, Err: ErrLineTooLong})

			if err == io.EOF {
				break
			} else if err != nil {
				return warnings, fmt.Errorf("error reading hash list: %w", err)
			}
			continue
		}

		if !lineIsHash(string(line)) {
			continue
		}

		if h, err := targets.Add(string(line)); err != nil {
			warnings = append(warnings, Warning{Line: lineNum, Value: h, Err: err})
		}
	}

	return warnings, nil
}

// Parse is Read into a new set
func Parse(r io.Reader) (digest.Targets, []Warning, error) {
	targets := digest.Targets{}
	warnings, err := Read(r, targets)
	return targets, warnings, err
}
