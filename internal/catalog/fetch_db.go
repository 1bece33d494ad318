package catalog

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const queryTimeout = 3 * time.Second

// PostgresFetcher reads the catalog straight from the platform database, for
// deployments where the storefront runs next to the source of truth instead
// of behind the catalog HTTP service. The cache layer above it is the same.
type PostgresFetcher struct {
	db *sql.DB
}

func NewPostgresFetcher(db *sql.DB) *PostgresFetcher {
	return &PostgresFetcher{db: db}
}

func OpenPostgres(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

func (f *PostgresFetcher) Ping(ctx context.Context) error {
	return withTimeout(ctx, 1*time.Second, func(ctx context.Context) error {
		return f.db.PingContext(ctx)
	})
}

func (f *PostgresFetcher) FetchCatalog(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := f.db.QueryContext(ctx, `
			SELECT p.sku, p.item_name, p.color_code, COALESCE(p.brand, ''),
			       s.size_label, s.stock_count
			FROM products p
			LEFT JOIN product_sizes s ON s.sku = p.sku
			ORDER BY p.sku ASC, s.position ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 64)
		for rows.Next() {
			var (
				p     Product
				label sql.NullString
				count sql.NullInt64
			)
			if err := rows.Scan(&p.SKU, &p.Name, &p.ColorCode, &p.Brand, &label, &count); err != nil {
				return err
			}

			if n := len(out); n > 0 && out[n-1].SKU == p.SKU {
				if label.Valid {
					out[n-1].Sizes = append(out[n-1].Sizes, SizeStock{Size: label.String, Count: int(count.Int64)})
				}
				continue
			}
			if label.Valid {
				p.Sizes = []SizeStock{{Size: label.String, Count: int(count.Int64)}}
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
