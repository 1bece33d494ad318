package catalog

import "time"

type SizeStock struct {
	Size  string `json:"size"`
	Count int    `json:"count"`
}

type Product struct {
	SKU       string      `json:"sku"`
	Name      string      `json:"item_name"`
	ColorCode string      `json:"color_code"`
	Brand     string      `json:"brand,omitempty"`
	Sizes     []SizeStock `json:"sizes"`
}

// InStock reports whether the product has the given size with stock left.
func (p Product) InStock(size string) bool {
	for _, s := range p.Sizes {
		if s.Size == size && s.Count > 0 {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Snapshot is the cached catalog plus its freshness metadata. It is replaced
// wholesale on every successful fetch; Version increases with each
// replacement so consumers can cheaply detect a new catalog.
type Snapshot struct {
	Products  []Product `json:"products"`
	FetchedAt time.Time `json:"fetched_at"`
	Status    Status    `json:"status"`
	LastError string    `json:"last_error,omitempty"`
	Version   uint64    `json:"version"`
}

// Age reports how long ago the snapshot was fetched, or a very large
// duration if it never was.
func (s Snapshot) Age(now time.Time) time.Duration {
	if s.FetchedAt.IsZero() {
		return 1<<63 - 1
	}
	return now.Sub(s.FetchedAt)
}
