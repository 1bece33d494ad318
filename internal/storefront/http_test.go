package storefront_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shopfront/internal/catalog"
	"shopfront/internal/storefront"
)

const upstreamCatalog = `[
	{"sku":"1","item_name":"Red Shirt","color_code":"RED","sizes":[{"size":"M","count":2},{"size":"L","count":0}]},
	{"sku":"2","item_name":"Blue Jeans","color_code":"BLU","brand":"Acme","sizes":[{"size":"L","count":4}]}
]`

func newUpstreamTS(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func newStorefrontTS(t *testing.T, upstreamURL string, cart *storefront.CartClient) *httptest.Server {
	t.Helper()

	store := catalog.NewStore(catalog.NewHTTPFetcher(upstreamURL), catalog.Options{
		RetryDelay: 5 * time.Millisecond,
	})

	s := &storefront.Server{
		Store: store,
		Cart:  cart,
		Log:   zap.NewNop(),
	}

	h := storefront.NewHandler(s, storefront.HTTPDeps{
		Log:     zap.NewNop(),
		Service: "storefront",
	})

	return httptest.NewServer(h)
}

type productsBody struct {
	Status         catalog.Status    `json:"status"`
	LastError      string            `json:"last_error"`
	AvailableSizes []string          `json:"available_sizes"`
	Products       []catalog.Product `json:"products"`
}

func getProducts(t *testing.T, baseURL, query string) (int, productsBody) {
	t.Helper()

	resp, err := http.Get(baseURL + "/products" + query)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body productsBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestProducts_FilteredBrowse(t *testing.T) {
	up := newUpstreamTS(t, upstreamCatalog, http.StatusOK)
	t.Cleanup(up.Close)

	ts := newStorefrontTS(t, up.URL, nil)
	t.Cleanup(ts.Close)

	t.Run("Unfiltered", func(t *testing.T) {
		code, body := getProducts(t, ts.URL, "")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, catalog.StatusSuccess, body.Status)
		assert.Len(t, body.Products, 2)
		assert.Equal(t, []string{"L", "M"}, body.AvailableSizes)
	})

	t.Run("SearchTerm", func(t *testing.T) {
		code, body := getProducts(t, ts.URL, "?search=red")
		assert.Equal(t, http.StatusOK, code)
		require.Len(t, body.Products, 1)
		assert.Equal(t, "1", body.Products[0].SKU)
	})

	t.Run("SizeSelection", func(t *testing.T) {
		code, body := getProducts(t, ts.URL, "?size=L")
		assert.Equal(t, http.StatusOK, code)
		require.Len(t, body.Products, 1)
		assert.Equal(t, "2", body.Products[0].SKU, "zero-stock L must not match")
	})

	t.Run("SearchAndSize", func(t *testing.T) {
		code, body := getProducts(t, ts.URL, "?search=red&size=L")
		assert.Equal(t, http.StatusOK, code)
		assert.Empty(t, body.Products)
	})
}

func TestProducts_EmptyCatalogRendersDistinctFromError(t *testing.T) {
	up := newUpstreamTS(t, `[]`, http.StatusOK)
	t.Cleanup(up.Close)

	ts := newStorefrontTS(t, up.URL, nil)
	t.Cleanup(ts.Close)

	code, body := getProducts(t, ts.URL, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, catalog.StatusSuccess, body.Status)
	assert.Empty(t, body.Products)
	assert.Empty(t, body.LastError)
}

func TestProducts_UpstreamDownSurfacesErrorStatus(t *testing.T) {
	up := newUpstreamTS(t, `oops`, http.StatusBadGateway)
	t.Cleanup(up.Close)

	ts := newStorefrontTS(t, up.URL, nil)
	t.Cleanup(ts.Close)

	code, body := getProducts(t, ts.URL, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, catalog.StatusError, body.Status)
	assert.NotEmpty(t, body.LastError)
	assert.Empty(t, body.Products)
}

func TestCatalogStatusAndRefresh(t *testing.T) {
	up := newUpstreamTS(t, upstreamCatalog, http.StatusOK)
	t.Cleanup(up.Close)

	ts := newStorefrontTS(t, up.URL, nil)
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/catalog/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var before catalog.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&before))
	assert.Equal(t, catalog.StatusIdle, before.Status, "status probe must not trigger a fetch")

	resp, err = http.Post(ts.URL+"/catalog/refresh", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var after catalog.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&after))
	assert.Equal(t, catalog.StatusSuccess, after.Status)
	assert.Len(t, after.Products, 2)
}

func TestCartCount_ProxiesUpstreamInteger(t *testing.T) {
	cartTS := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cart/count", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":3}`))
	}))
	t.Cleanup(cartTS.Close)

	up := newUpstreamTS(t, upstreamCatalog, http.StatusOK)
	t.Cleanup(up.Close)

	ts := newStorefrontTS(t, up.URL, storefront.NewCartClient(cartTS.URL))
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/cart/count")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 3, body["count"])
}

func TestHealthz(t *testing.T) {
	up := newUpstreamTS(t, upstreamCatalog, http.StatusOK)
	t.Cleanup(up.Close)

	ts := newStorefrontTS(t, up.URL, nil)
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
