package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/domain"
)

func guestIdentity(id string) IdentityFunc {
	return func() domain.SessionIdentity { return domain.GuestIdentity(id) }
}

func authedIdentity(token string) IdentityFunc {
	return func() domain.SessionIdentity {
		return domain.AuthenticatedIdentity(domain.AuthUser{ID: "u-1"}, token, "refresh")
	}
}

func TestNormalizeCartLines(t *testing.T) {
	lines := `[{"id":"l1","productId":"A","name":"Alpha","unitPrice":100,"quantity":2,"stockAvailable":20}]`

	cases := []struct {
		name string
		body string
	}{
		{"bare array", lines},
		{"cartItems wrapper", `{"cartItems":` + lines + `}`},
		{"items wrapper", `{"items":` + lines + `}`},
		{"data wrapper", `{"data":` + lines + `}`},
		{"nested wrapper", `{"data":{"cartItems":` + lines + `}}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := normalizeCartLines([]byte(c.body))
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "A", got[0].ProductID)
			assert.Equal(t, 2, got[0].Quantity)
			assert.Equal(t, 100.0, got[0].UnitPrice)
		})
	}

	t.Run("empty and null", func(t *testing.T) {
		for _, body := range []string{"", "null", "  "} {
			got, err := normalizeCartLines([]byte(body))
			require.NoError(t, err)
			assert.Empty(t, got)
		}
	})

	t.Run("unrecognized shape", func(t *testing.T) {
		_, err := normalizeCartLines([]byte(`{"something":1}`))
		assert.Error(t, err)
	})
}

func TestFetchCart_GuestUsesQueryParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "g-1", r.URL.Query().Get("guestId"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, guestIdentity("g-1"))
	items, err := c.FetchCart(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetchCart_AuthenticatedUsesBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Empty(t, r.URL.Query().Get("guestId"))
		w.Write([]byte(`{"cartItems":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, authedIdentity("tok-1"))
	_, err := c.FetchCart(context.Background())
	require.NoError(t, err)
}

func TestFetchCart_CachedUntilMutation(t *testing.T) {
	var fetches, adds int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			atomic.AddInt32(&fetches, 1)
			w.Write([]byte(`[{"id":"l1","productId":"A","unitPrice":5,"quantity":1,"stockAvailable":9}]`))
		case r.Method == http.MethodPost:
			atomic.AddInt32(&adds, 1)
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, guestIdentity("g-1"))
	ctx := context.Background()

	_, err := c.FetchCart(ctx)
	require.NoError(t, err)
	_, err = c.FetchCart(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fetches), "second read should hit the cache")

	require.NoError(t, c.AddItem(ctx, "A", 1))
	assert.EqualValues(t, 1, atomic.LoadInt32(&adds))

	_, err = c.FetchCart(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&fetches), "mutation must invalidate the cached view")
}

func TestFetchCart_StaleResponseDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			close(started)
			<-release
			w.Write([]byte(`[{"id":"l1","productId":"OLD","unitPrice":1,"quantity":1,"stockAvailable":9}]`))
			return
		}
		w.Write([]byte(`[{"id":"l2","productId":"NEW","unitPrice":1,"quantity":1,"stockAvailable":9}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, guestIdentity("g-1"))
	ctx := context.Background()

	done := make(chan []domain.CartLineItem, 1)
	go func() {
		items, err := c.FetchCart(ctx)
		assert.NoError(t, err)
		done <- items
	}()

	// a mutation lands while the first fetch is in flight
	<-started
	c.InvalidateCart()
	close(release)
	stale := <-done
	require.Len(t, stale, 1)
	assert.Equal(t, "OLD", stale[0].ProductID)

	// the stale response must not have been cached: the next read refetches
	items, err := c.FetchCart(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "NEW", items[0].ProductID)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestMutation_SurfacesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"message": "product is out of stock"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, guestIdentity("g-1"))
	err := c.AddItem(context.Background(), "A", 1)
	require.Error(t, err)

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "product is out of stock", apiErr.Message)
}

func TestMutation_GuestAddCarriesGuestIDInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "g-7", body["guestId"])
		assert.Equal(t, "A", body["productId"])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, guestIdentity("g-7"))
	require.NoError(t, c.AddItem(context.Background(), "A", 2))
}
