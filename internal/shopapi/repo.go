// Package shopapi is a development implementation of the shop API the
// storefront talks to: GET /shops and POST /auth/login.
package shopapi

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/catalog"
)

var (
	ErrInvalidShop = errors.New("invalid shop")
)

// Query selects a page of shops. A shop matches when at least one of its
// products matches every set filter; only matching products are returned.
type Query struct {
	ProductName string           // case-insensitive substring
	MaxPrice    *decimal.Decimal // price <= MaxPrice
	MinStock    *decimal.Decimal // stock >= MinStock
	Limit       int
	Page        int
}

func (q Query) offset() int { return (q.Page - 1) * q.Limit }

type Repository interface {
	Create(ctx context.Context, s *catalog.Shop) error
	List(ctx context.Context, q Query) ([]catalog.Shop, int, error)
}

// Compile-time interface guards.
var (
	_ Repository = (*MemRepo)(nil)
	_ Repository = (*PGRepo)(nil)
)

func validateShop(s *catalog.Shop) error {
	if s.Name == "" || len(s.Products) == 0 {
		return ErrInvalidShop
	}
	for _, p := range s.Products {
		if p.Name == "" || p.Price.IsNegative() || p.Stock < 0 {
			return ErrInvalidShop
		}
	}
	return nil
}

func assignIDs(s *catalog.Shop) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	for i := range s.Products {
		if s.Products[i].ID == "" {
			s.Products[i].ID = uuid.NewString()
		}
	}
}

func (q Query) matches(p catalog.Product) bool {
	if q.ProductName != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.ProductName)) {
		return false
	}
	if q.MaxPrice != nil && p.Price.GreaterThan(*q.MaxPrice) {
		return false
	}
	if q.MinStock != nil && decimal.NewFromInt(int64(p.Stock)).LessThan(*q.MinStock) {
		return false
	}
	return true
}

// MemRepo keeps shops in memory, ordered by name.
type MemRepo struct {
	mu    sync.RWMutex
	shops []catalog.Shop
}

func NewMemRepo() *MemRepo { return &MemRepo{} }

func (r *MemRepo) Create(ctx context.Context, s *catalog.Shop) error {
	if err := validateShop(s); err != nil {
		return err
	}
	assignIDs(s)
	cp := *s
	cp.Products = append([]catalog.Product(nil), s.Products...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.shops = append(r.shops, cp)
	sort.SliceStable(r.shops, func(i, j int) bool { return r.shops[i].Name < r.shops[j].Name })
	return nil
}

func (r *MemRepo) List(ctx context.Context, q Query) ([]catalog.Shop, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []catalog.Shop
	for _, s := range r.shops {
		var products []catalog.Product
		for _, p := range s.Products {
			if q.matches(p) {
				products = append(products, p)
			}
		}
		if len(products) == 0 {
			continue
		}
		cp := s
		cp.Products = products
		matched = append(matched, cp)
	}

	total := len(matched)
	start := q.offset()
	if start >= total {
		return []catalog.Shop{}, total, nil
	}
	end := min(start+q.Limit, total)
	return matched[start:end], total, nil
}

// PGRepo reads shops from Postgres. Expected schema:
//
//	shops(id text primary key, name text, created_at timestamptz)
//	products(id text primary key, shop_id text references shops, name text,
//	         price numeric, stock int, images text[], created_at timestamptz)
type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const productFilter = `
	($1 = '' OR p.name ILIKE '%'||$1||'%')
	AND ($2::numeric IS NULL OR p.price <= $2::numeric)
	AND ($3::numeric IS NULL OR p.stock >= $3::numeric)`

func decimalArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func (r *PGRepo) Create(ctx context.Context, s *catalog.Shop) error {
	if err := validateShop(s); err != nil {
		return err
	}
	assignIDs(s)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO shops (id, name, created_at) VALUES ($1,$2,NOW())
	`, s.ID, s.Name); err != nil {
		return err
	}
	for _, p := range s.Products {
		if _, err := tx.Exec(ctx, `
			INSERT INTO products (id, shop_id, name, price, stock, images, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,NOW())
		`, p.ID, s.ID, p.Name, p.Price.String(), p.Stock, p.Images); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]catalog.Shop, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	name := strings.TrimSpace(q.ProductName)
	price, stock := decimalArg(q.MaxPrice), decimalArg(q.MinStock)

	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM shops s
		WHERE EXISTS (SELECT 1 FROM products p WHERE p.shop_id = s.id AND`+productFilter+`)
	`, name, price, stock).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 || q.offset() >= total {
		return []catalog.Shop{}, total, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.name FROM shops s
		WHERE EXISTS (SELECT 1 FROM products p WHERE p.shop_id = s.id AND`+productFilter+`)
		ORDER BY s.name
		LIMIT $4 OFFSET $5
	`, name, price, stock, q.Limit, q.offset())
	if err != nil {
		return nil, 0, err
	}
	var shops []catalog.Shop
	index := map[string]int{}
	var ids []string
	for rows.Next() {
		var s catalog.Shop
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			rows.Close()
			return nil, 0, err
		}
		index[s.ID] = len(shops)
		ids = append(ids, s.ID)
		shops = append(shops, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	prows, err := r.db.Query(ctx, `
		SELECT p.id, p.shop_id, p.name, p.price::text, p.stock, COALESCE(p.images, '{}')
		FROM products p
		WHERE p.shop_id = ANY($4) AND`+productFilter+`
		ORDER BY p.created_at, p.id
	`, name, price, stock, ids)
	if err != nil {
		return nil, 0, err
	}
	defer prows.Close()
	for prows.Next() {
		var (
			p         catalog.Product
			shopID    string
			priceText string
		)
		if err := prows.Scan(&p.ID, &shopID, &p.Name, &priceText, &p.Stock, &p.Images); err != nil {
			return nil, 0, err
		}
		if p.Price, err = decimal.NewFromString(priceText); err != nil {
			return nil, 0, err
		}
		i := index[shopID]
		shops[i].Products = append(shops[i].Products, p)
	}
	return shops, total, prows.Err()
}
