package trivia

// Paginate returns the 1-based page of items of the given size. Pages outside
// the list, including page < 1, come back empty and never nil.
func Paginate[T any](items []T, page, size int) []T {
	if page < 1 || size <= 0 || page-1 > len(items)/size {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := min(start+size, len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}
