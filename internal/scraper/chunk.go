package scraper

import "fmt"

// Partition splits targets into contiguous chunks of ceil(len/workers)
// elements; the last chunk holds the remainder. Only non-empty chunks are
// returned, so a worker count above len(targets) yields fewer chunks.
func Partition(targets []string, workers int) ([][]string, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkers, workers)
	}
	if len(targets) == 0 {
		return nil, nil
	}
	size := (len(targets) + workers - 1) / workers
	chunks := make([][]string, 0, workers)
	for start := 0; start < len(targets); start += size {
		end := min(start+size, len(targets))
		chunks = append(chunks, targets[start:end:end])
	}
	return chunks, nil
}
