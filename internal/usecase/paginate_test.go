package usecase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalPages(t *testing.T) {
	testCases := []struct {
		name     string
		total    int
		perPage  int
		expected int
	}{
		{name: "empty collection still has one page", total: 0, perPage: 50, expected: 1},
		{name: "exact multiple", total: 100, perPage: 50, expected: 2},
		{name: "remainder adds a page", total: 101, perPage: 50, expected: 3},
		{name: "fewer items than one page", total: 7, perPage: 50, expected: 1},
		{name: "per page of one", total: 3, perPage: 1, expected: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, totalPages(tc.total, tc.perPage))
		})
	}
}

func TestPageSlice(t *testing.T) {
	items := make([]int, 0, 7)
	for i := 1; i <= 7; i++ {
		items = append(items, i)
	}

	testCases := []struct {
		name            string
		items           []int
		page            int
		perPage         int
		expectedSlice   []int
		expectedPages   int
		expectedHasNext bool
	}{
		{
			name:            "first page of several",
			items:           items,
			page:            1,
			perPage:         3,
			expectedSlice:   []int{1, 2, 3},
			expectedPages:   3,
			expectedHasNext: true,
		},
		{
			name:            "last page is a partial page",
			items:           items,
			page:            3,
			perPage:         3,
			expectedSlice:   []int{7},
			expectedPages:   3,
			expectedHasNext: false,
		},
		{
			name:            "page beyond the end returns an empty slice",
			items:           items,
			page:            5,
			perPage:         3,
			expectedSlice:   []int{},
			expectedPages:   3,
			expectedHasNext: false,
		},
		{
			name:            "maximum page value does not overflow the slice bounds",
			items:           items,
			page:            math.MaxInt,
			perPage:         100,
			expectedSlice:   []int{},
			expectedPages:   1,
			expectedHasNext: false,
		},
		{
			name:            "empty collection is page one of one",
			items:           nil,
			page:            1,
			perPage:         50,
			expectedSlice:   []int{},
			expectedPages:   1,
			expectedHasNext: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			slice, info := pageSlice(tc.items, tc.page, tc.perPage)
			assert.Equal(t, tc.expectedSlice, append([]int{}, slice...))
			assert.Equal(t, len(tc.items), info.Total)
			assert.Equal(t, tc.expectedPages, info.TotalPages)
			assert.Equal(t, tc.expectedHasNext, info.HasNextPage)
			assert.Equal(t, len(tc.expectedSlice), info.Returned)
		})
	}
}
