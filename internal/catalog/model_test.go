package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSort(t *testing.T) {
	tests := []struct {
		in   string
		want SortOption
	}{
		{"latest", SortLatest},
		{"price_asc", SortPriceAsc},
		{"price_desc", SortPriceDesc},
		{"name_asc", SortNameAsc},
		{"", SortLatest},
		{"garbage", SortLatest},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSort(tt.in))
		})
	}
}

func TestSortOrderBy(t *testing.T) {
	assert.Equal(t, "created_at DESC", SortLatest.orderBy())
	assert.Equal(t, "price ASC", SortPriceAsc.orderBy())
	assert.Equal(t, "price DESC", SortPriceDesc.orderBy())
	assert.Equal(t, "name ASC", SortNameAsc.orderBy())
}
