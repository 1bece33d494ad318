package catalog

import (
	"sort"
	"strings"
)

// SizeAll is the sentinel size selection that disables size filtering.
// An empty selection is treated the same way.
const SizeAll = "all"

// AvailableSizes returns every size label that has stock in at least one
// product, deduplicated and sorted ascending. A size listed only with zero
// stock never appears.
func AvailableSizes(products []Product) []string {
	set := map[string]struct{}{}
	for _, p := range products {
		for _, s := range p.Sizes {
			if s.Count > 0 {
				set[s.Size] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(set))
	for size := range set {
		out = append(out, size)
	}
	sort.Strings(out)
	return out
}

// FilterProducts keeps the products matching both the search term and the
// size selection, preserving the input order. The term matches
// case-insensitively against name, color code, and brand if present.
func FilterProducts(products []Product, searchTerm, selectedSize string) []Product {
	out := make([]Product, 0, len(products))
	term := strings.ToLower(searchTerm)
	for _, p := range products {
		if !matchesTerm(p, term) {
			continue
		}
		if selectedSize != "" && selectedSize != SizeAll && !p.InStock(selectedSize) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesTerm(p Product, term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Name), term) {
		return true
	}
	if strings.Contains(strings.ToLower(p.ColorCode), term) {
		return true
	}
	return p.Brand != "" && strings.Contains(strings.ToLower(p.Brand), term)
}

// DerivedView is one filtering result: the sizes available across the
// snapshot and the products surviving the current search/size selection.
type DerivedView struct {
	AvailableSizes   []string  `json:"available_sizes"`
	FilteredProducts []Product `json:"filtered_products"`
}

// View memoizes the last derivation. Snapshots are replaced wholesale and
// carry a version, so (version, term, size) identifies the inputs; the
// products are never compared element-wise. Not safe for concurrent use;
// give each consumer its own View.
type View struct {
	lastVersion uint64
	lastTerm    string
	lastSize    string
	primed      bool
	cached      DerivedView
}

// Derive recomputes only when the snapshot version or the filter inputs
// changed since the previous call.
func (v *View) Derive(snap Snapshot, searchTerm, selectedSize string) DerivedView {
	if v.primed && v.lastVersion == snap.Version &&
		v.lastTerm == searchTerm && v.lastSize == selectedSize {
		return v.cached
	}

	v.cached = DerivedView{
		AvailableSizes:   AvailableSizes(snap.Products),
		FilteredProducts: FilterProducts(snap.Products, searchTerm, selectedSize),
	}
	v.lastVersion = snap.Version
	v.lastTerm = searchTerm
	v.lastSize = selectedSize
	v.primed = true
	return v.cached
}
