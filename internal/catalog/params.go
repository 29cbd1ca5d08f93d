package catalog

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Filter says which discriminator key a search query was resolved to.
type Filter int

const (
	FilterNone Filter = iota
	FilterPrice
	FilterStock
	FilterProductName
)

func (f Filter) String() string {
	switch f {
	case FilterPrice:
		return "price"
	case FilterStock:
		return "stock"
	case FilterProductName:
		return "productName"
	default:
		return "none"
	}
}

// PriceThreshold separates numeric queries: above it the number is a price,
// at or below it a stock quantity.
const PriceThreshold = 1000

// Params is the query sent to GET /shops. At most one of price, stock and
// productName is present, selected by Filter.
type Params struct {
	Limit  int
	Page   int
	Filter Filter
	Number float64 // FilterPrice, FilterStock
	Text   string  // FilterProductName
}

// Resolve maps a free-text query and the pagination settings to Params.
//
// A fully numeric query is a price when it exceeds PriceThreshold and a stock
// quantity otherwise. This is a heuristic: a stock count above 1000 or a price
// below it is misclassified. Surrounding whitespace is ignored when detecting
// numbers. Anything else searches by product name, verbatim.
func Resolve(query string, itemsPerPage, currentPage int) Params {
	p := Params{Limit: itemsPerPage, Page: currentPage}
	if query == "" {
		return p
	}
	if v, ok := parseNumber(query); ok {
		p.Number = v
		if v > PriceThreshold {
			p.Filter = FilterPrice
		} else {
			p.Filter = FilterStock
		}
		return p
	}
	p.Filter = FilterProductName
	p.Text = query
	return p
}

// parseNumber ignores surrounding whitespace; a blank string is 0.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Values renders p as URL query parameters.
func (p Params) Values() url.Values {
	v := url.Values{}
	v.Set("limit", strconv.Itoa(p.Limit))
	v.Set("page", strconv.Itoa(p.Page))
	switch p.Filter {
	case FilterPrice:
		v.Set("price", strconv.FormatFloat(p.Number, 'f', -1, 64))
	case FilterStock:
		v.Set("stock", strconv.FormatFloat(p.Number, 'f', -1, 64))
	case FilterProductName:
		v.Set("productName", p.Text)
	}
	return v
}
