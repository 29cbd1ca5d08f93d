// Package catalog resolves storefront searches into shop-listing queries,
// fetches them from the shop API and keeps the paginated result consistent
// with the most recent request.
package catalog

import "github.com/shopspring/decimal"

// Product is one item offered by a shop.
// swagger:model
type Product struct {
	ID     string          `json:"id,omitempty" example:"7b0c1e9a-3f4d-4a51-9f0e-2c1d5e6f7a80"`
	Name   string          `json:"name"         example:"Wooden Chair"`
	Price  decimal.Decimal `json:"price"        example:"450000"`
	Stock  int             `json:"stock"        example:"12"`
	Images []string        `json:"images"`
}

// Shop groups the products a seller lists.
// swagger:model
type Shop struct {
	ID       string    `json:"id,omitempty"   example:"0f8e4c2a-1b3d-4e5f-8a9b-7c6d5e4f3a21"`
	Name     string    `json:"name,omitempty" example:"Toko Kursi"`
	Products []Product `json:"products"`
}

// ListResponse is the body returned by GET /shops.
// swagger:model
type ListResponse struct {
	IsSuccess bool `json:"isSuccess" example:"true"`
	// status text
	// example: Success
	Message    string     `json:"message,omitempty"`
	Data       ListData   `json:"data"`
	Pagination PageResult `json:"pagination"`
}

type ListData struct {
	Shops []Shop `json:"shops"`
}

// PageResult echoes the page requested and the total number of matching
// shops.
// swagger:model
type PageResult struct {
	Page     int `json:"page,omitempty"  example:"1"`
	Limit    int `json:"limit,omitempty" example:"10"`
	TotalRow int `json:"totalRow"        example:"12"`
}

// ErrorResponse is the body of a failed request.
// swagger:model
type ErrorResponse struct {
	IsSuccess bool `json:"isSuccess" example:"false"`
	// Error message
	// example: No shops found
	Message string `json:"message"`
}
