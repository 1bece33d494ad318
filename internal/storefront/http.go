package storefront

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"shopfront/internal/catalog"
	"shopfront/pkg/kit"
)

type Server struct {
	Store *catalog.Store
	Cart  *CartClient
	Log   *zap.Logger

	// Ping checks the upstream catalog source for readiness; optional.
	Ping func(ctx context.Context) error
}

type catalogResponse struct {
	Status         catalog.Status    `json:"status"`
	FetchedAt      time.Time         `json:"fetched_at"`
	LastError      string            `json:"last_error,omitempty"`
	AvailableSizes []string          `json:"available_sizes"`
	Products       []catalog.Product `json:"products"`
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.ready)

	r.Get("/products", s.products)
	r.Get("/products/sizes", s.sizes)
	r.Get("/catalog/status", s.status)
	r.Post("/catalog/refresh", s.refresh)
	r.Get("/cart/count", s.cartCount)

	return r
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	// a cached snapshot is enough to serve, even while upstream is down
	if snap := s.Store.Current(); !snap.FetchedAt.IsZero() {
		w.WriteHeader(http.StatusOK)
		return
	}

	if s.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Ping(ctx); err != nil {
			if s.Log != nil {
				s.Log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) products(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Store.Load(r.Context())
	if err != nil && len(snap.Products) == 0 && snap.Status != catalog.StatusError {
		// no data at all, not even stale
		if s.Log != nil {
			s.Log.Error("load catalog failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
		return
	}

	q := r.URL.Query()
	search := q.Get("search")
	size := q.Get("size")

	kit.WriteJSON(w, http.StatusOK, catalogResponse{
		Status:         snap.Status,
		FetchedAt:      snap.FetchedAt,
		LastError:      snap.LastError,
		AvailableSizes: catalog.AvailableSizes(snap.Products),
		Products:       catalog.FilterProducts(snap.Products, search, size),
	})
}

func (s *Server) sizes(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Store.Load(r.Context())
	if err != nil && len(snap.Products) == 0 && snap.Status != catalog.StatusError {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"sizes": catalog.AvailableSizes(snap.Products),
	})
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Store.Current())
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Store.Refetch(r.Context())
	if err != nil && snap.Status != catalog.StatusError {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "refresh failed", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, snap)
}

func (s *Server) cartCount(w http.ResponseWriter, r *http.Request) {
	if s.Cart == nil {
		kit.WriteError(w, r, http.StatusNotFound, "cart not configured", nil)
		return
	}

	n, err := s.Cart.Count(r.Context())
	if err != nil {
		if s.Log != nil {
			s.Log.Warn("cart count failed", zap.Error(err))
		}
		status := http.StatusBadGateway
		if errors.Is(err, ErrCartUnavailable) {
			status = http.StatusServiceUnavailable
		}
		kit.WriteError(w, r, status, "cart unavailable", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]int{"count": n})
}
