package store

// Paginate slices items into the requested 1-based page. Pages past the end
// of the data come back empty rather than erroring; only a page number below
// 1 is rejected. A pageSize of 0 or less means no pagination.
func Paginate[T any](items []T, pageSize, pageNumber int) ([]T, error) {
	if pageNumber < 1 {
		return nil, ErrInvalidPage
	}
	if pageSize <= 0 {
		return items, nil
	}

	start := (pageNumber - 1) * pageSize
	if start >= len(items) {
		return []T{}, nil
	}

	end := min(start+pageSize, len(items))
	return items[start:end], nil
}
