package scraper

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const maxTargetLineBytes = 1 << 20

// ReadTargets parses a newline-delimited URL list, skipping blank lines.
func ReadTargets(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxTargetLineBytes)
	var targets []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	return targets, nil
}

// ReadTargetsFile opens path and parses it with ReadTargets.
func ReadTargetsFile(path string) ([]string, error) {
	f, err := os.Open(path) // #nosec G304 -- path is an operator-supplied input list.
	if err != nil {
		return nil, fmt.Errorf("open targets file %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only handle
	targets, err := ReadTargets(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return targets, nil
}
