package usecase

import "github.com/orgpulse/orgpulse/internal/domain"

// totalPages is ceil(total/perPage) with a floor of 1, so "page 1 of 1, empty"
// is well-defined even for an empty collection.
func totalPages(total, perPage int) int {
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	return pages
}

// pageSlice cuts the requested page out of the full collection and reports the
// slicing arithmetic. Counters are always computed over the full collection.
func pageSlice[T any](items []T, page, perPage int) ([]T, domain.PageResult) {
	total := len(items)
	pages := totalPages(total, perPage)

	// Pages past the end are empty. This also keeps (page-1)*perPage from
	// overflowing for absurd page values.
	if page > pages {
		return items[total:], domain.PageResult{
			Total:      total,
			TotalPages: pages,
			Returned:   0,
		}
	}

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	slice := items[start:end]

	return slice, domain.PageResult{
		Total:       total,
		TotalPages:  pages,
		HasNextPage: page < pages,
		Returned:    len(slice),
	}
}
