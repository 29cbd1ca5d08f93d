package shopapi

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/catalog"
)

// SeedShops returns the demo catalogue served by shop-mock.
func SeedShops() []catalog.Shop {
	p := func(name string, price int64, stock int) catalog.Product {
		return catalog.Product{
			Name:   name,
			Price:  decimal.NewFromInt(price),
			Stock:  stock,
			Images: []string{fmt.Sprintf("https://picsum.photos/seed/%s/400/300", slug(name))},
		}
	}
	return []catalog.Shop{
		{Name: "Toko Kursi", Products: []catalog.Product{p("Wooden Chair", 450000, 12), p("Folding Chair", 175000, 40)}},
		{Name: "Lampu Terang", Products: []catalog.Product{p("Desk Lamp", 220000, 8), p("Floor Lamp", 890000, 3)}},
		{Name: "Meja Kita", Products: []catalog.Product{p("Study Desk", 1250000, 5)}},
		{Name: "Dapur Sehat", Products: []catalog.Product{p("Frying Pan", 310000, 25), p("Rice Cooker", 650000, 14)}},
		{Name: "Sepeda Santai", Products: []catalog.Product{p("City Bike", 3200000, 2)}},
		{Name: "Buku Murah", Products: []catalog.Product{p("Notebook A5", 15000, 500), p("Fountain Pen", 85000, 60)}},
		{Name: "Kebun Hijau", Products: []catalog.Product{p("Plant Pot", 45000, 120), p("Garden Hose", 130000, 18)}},
		{Name: "Gadget Store", Products: []catalog.Product{p("Wireless Mouse", 150000, 35), p("Mechanical Keyboard", 950000, 9)}},
		{Name: "Kain Indah", Products: []catalog.Product{p("Batik Shirt", 275000, 22)}},
		{Name: "Mainan Anak", Products: []catalog.Product{p("Puzzle 500", 99000, 15), p("Toy Car", 60000, 1500)}},
		{Name: "Olahraga Pro", Products: []catalog.Product{p("Yoga Mat", 180000, 30), p("Dumbbell Set", 720000, 6)}},
		{Name: "Kopi Nusantara", Products: []catalog.Product{p("Arabica 250g", 95000, 80)}},
	}
}

// Seed creates every demo shop in repo.
func Seed(ctx context.Context, repo Repository) error {
	for _, s := range SeedShops() {
		s := s
		if err := repo.Create(ctx, &s); err != nil {
			return fmt.Errorf("seed %s: %w", s.Name, err)
		}
	}
	return nil
}

func slug(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+'a'-'A')
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}
