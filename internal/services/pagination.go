package services

import "math"

// pageOffset returns the zero-based offset of the first item on page.
// ok is false when the page lies past any offset an int can hold; the
// returned offset is then math.MaxInt so the page is empty.
func pageOffset(page, limit int) (offset int, ok bool) {
	if page-1 > (math.MaxInt-limit)/limit {
		return math.MaxInt, false
	}
	return (page - 1) * limit, true
}

func paginate(page, limit int, total int64) Pagination {
	var p Pagination
	if offset, ok := pageOffset(page, limit); ok && int64(offset+limit) < total {
		p.Next = &PageRef{Page: page + 1, Limit: limit}
	}
	if page > 1 {
		p.Prev = &PageRef{Page: page - 1, Limit: limit}
	}
	return p
}

func normalizePage(page, limit int, limits PageLimits) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = limits.DefaultLimit
	}
	if limits.MaxLimit > 0 && limit > limits.MaxLimit {
		limit = limits.MaxLimit
	}
	return page, limit
}
