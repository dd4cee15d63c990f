package catalog

import (
	"time"

	"github.com/gofrs/uuid"
)

// Product is owned by catalog management; the storefront core only reads it,
// except for the order builder's stock decrement at commit time.
type Product struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Price         int64     `json:"price"` // integer currency unit
	Category      string    `json:"category,omitempty"`
	StockQuantity int       `json:"stock_quantity"`
	IsActive      bool      `json:"is_active"`
	ImageURL      string    `json:"image_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type SortOption string

const (
	SortLatest    SortOption = "latest"
	SortPriceAsc  SortOption = "price_asc"
	SortPriceDesc SortOption = "price_desc"
	SortNameAsc   SortOption = "name_asc"
)

// ParseSort maps a query-string sort value to a known option, defaulting to
// newest-first for anything unrecognized.
func ParseSort(s string) SortOption {
	switch SortOption(s) {
	case SortPriceAsc, SortPriceDesc, SortNameAsc:
		return SortOption(s)
	default:
		return SortLatest
	}
}

func (s SortOption) orderBy() string {
	switch s {
	case SortPriceAsc:
		return "price ASC"
	case SortPriceDesc:
		return "price DESC"
	case SortNameAsc:
		return "name ASC"
	default:
		return "created_at DESC"
	}
}

type ListFilter struct {
	Category string
	Search   string
	Sort     SortOption
	Limit    int
	Offset   int
}
