package httpserver

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// pageBounds turns 1-based page and size into offset and limit. Out of range
// values fall back to page 1 and the default size.
func pageBounds(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return (page - 1) * size, size
}
