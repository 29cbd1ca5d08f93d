package catalog

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireShapes(t *testing.T) {
	body, err := json.Marshal(ErrorResponse{Message: "No shops found"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"isSuccess":false,"message":"No shops found"}`, string(body))

	body, err = json.Marshal(ListResponse{
		IsSuccess: true,
		Data: ListData{Shops: []Shop{{
			Name:     "Toko Kursi",
			Products: []Product{{Name: "Wooden Chair", Price: decimal.NewFromInt(450000), Stock: 12, Images: []string{}}},
		}}},
		Pagination: PageResult{TotalRow: 12},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"isSuccess": true,
		"data": {"shops": [{"name": "Toko Kursi", "products": [
			{"name": "Wooden Chair", "price": "450000", "stock": 12, "images": []}
		]}]},
		"pagination": {"totalRow": 12}
	}`, string(body))
}
