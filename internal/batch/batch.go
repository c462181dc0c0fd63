// internal/batch/batch.go
package batch

// Chunk splits items into consecutive groups of at most size elements,
// preserving order. The last group may be shorter. Empty input yields no
// groups. A size below 1 is treated as 1.
func Chunk[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	chunks := [][]T{}
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
