package storeapi_test

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UnknownOlympus/storelens/internal/models"
	"github.com/UnknownOlympus/storelens/internal/storeapi"
	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// mockHTTPClient is a mock implementation of HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func newTestClient(doFunc func(req *http.Request) (*http.Response, error)) *storeapi.Client {
	return storeapi.NewClientWithHTTPClient(
		&mockHTTPClient{doFunc: doFunc},
		storeapi.DefaultBaseURL,
		time.Second,
		rate.NewLimiter(rate.Inf, 0),
		slog.Default(),
	)
}

func TestClient_Users(t *testing.T) {
	ctx := t.Context()

	t.Run("successful fetch", func(t *testing.T) {
		client := newTestClient(func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, "https://fakestoreapi.com/users", req.URL.String())
			assert.Equal(t, "fakestoreapi.com", req.Host)
			assert.Equal(t, "fakestoreapi.com", req.Header.Get("Alt-Used"))
			assert.Equal(t, "gzip, deflate, br", req.Header.Get("Accept-Encoding"))
			assert.Equal(t, "pl,en-US;q=0.7,en;q=0.3", req.Header.Get("Accept-Language"))
			assert.Equal(t, "keep-alive", req.Header.Get("Connection"))
			assert.Contains(t, req.Header.Get("Accept"), "application/xml;q=0.9")

			return jsonResponse(http.StatusOK, `[{
				"address": {
					"geolocation": {"lat": "-37.3159", "long": "81.1496"},
					"city": "kilcoole", "street": "new road", "number": 7682, "zipcode": "12926-3874"
				},
				"id": 1,
				"email": "john@gmail.com",
				"username": "johnd",
				"password": "m38rmF$",
				"name": {"firstname": "john", "lastname": "doe"},
				"phone": "1-570-236-7033",
				"__v": 0
			}]`), nil
		})

		users, err := client.Users(ctx)

		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, 1, users[0].ID)
		assert.Equal(t, models.Name{Firstname: "john", Lastname: "doe"}, users[0].Name)
		assert.Equal(t, "kilcoole", users[0].Address.City)
		assert.InEpsilon(t, -37.3159, float64(users[0].Address.Geolocation.Lat), 1e-9)
		assert.InEpsilon(t, 81.1496, float64(users[0].Address.Geolocation.Long), 1e-9)
	})

	t.Run("HTTP client returns error", func(t *testing.T) {
		client := newTestClient(func(_ *http.Request) (*http.Response, error) {
			return nil, assert.AnError
		})

		users, err := client.Users(ctx)

		require.Nil(t, users)
		require.ErrorIs(t, err, storeapi.ErrFetchFailed)
		require.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "failed to execute request")
	})
}

func TestClient_Products(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/products", req.URL.Path)
		return jsonResponse(http.StatusOK, `[{
			"id": 1,
			"title": "Fjallraven - Foldsack No. 1 Backpack, Fits 15 Laptops",
			"price": 109.95,
			"description": "Your perfect pack for everyday use",
			"category": "men's clothing",
			"image": "https://fakestoreapi.com/img/81fPKd-2AYL._AC_SL1500_.jpg",
			"rating": {"rate": 3.9, "count": 120}
		}]`), nil
	})

	products, err := client.Products(t.Context())

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "men's clothing", products[0].Category)
	assert.InEpsilon(t, 109.95, products[0].Price, 1e-9)
	assert.Equal(t, models.Rating{Rate: 3.9, Count: 120}, products[0].Rating)
}

func TestClient_Carts(t *testing.T) {
	ctx := t.Context()

	t.Run("date filter sent as query", func(t *testing.T) {
		client := newTestClient(func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "/carts", req.URL.Path)
			assert.Equal(t, "2000-01-01", req.URL.Query().Get("startdate"))
			assert.Equal(t, "2023-04-07", req.URL.Query().Get("enddate"))
			return jsonResponse(http.StatusOK, `[{
				"id": 1, "userId": 1, "date": "2020-03-02T00:00:00.000Z",
				"products": [{"productId": 1, "quantity": 4}, {"productId": 2, "quantity": 1}],
				"__v": 0
			}]`), nil
		})

		carts, err := client.Carts(ctx, storeapi.CartFilter{StartDate: "2000-01-01", EndDate: "2023-04-07"})

		require.NoError(t, err)
		require.Len(t, carts, 1)
		assert.Equal(t, 1, carts[0].UserID)
		assert.Equal(t, time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC), carts[0].Date.UTC())
		assert.Equal(t, []models.LineItem{{ProductID: 1, Quantity: 4}, {ProductID: 2, Quantity: 1}}, carts[0].Products)
	})

	t.Run("empty filter sends no query", func(t *testing.T) {
		client := newTestClient(func(req *http.Request) (*http.Response, error) {
			assert.Empty(t, req.URL.RawQuery)
			return jsonResponse(http.StatusOK, `[]`), nil
		})

		carts, err := client.Carts(ctx, storeapi.CartFilter{})

		require.NoError(t, err)
		assert.Empty(t, carts)
	})
}

func TestClient_GetData(t *testing.T) {
	ctx := t.Context()

	t.Run("invalid URL", func(t *testing.T) {
		client := newTestClient(func(_ *http.Request) (*http.Response, error) {
			t.Fatal("request must not be sent")
			return nil, assert.AnError
		})

		var out any
		err := client.GetData(ctx, "well it should not work", 0, &out)

		require.ErrorIs(t, err, storeapi.ErrFetchFailed)
		assert.Nil(t, out)
	})

	t.Run("unreachable host", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		addr := server.URL
		server.Close()

		client := storeapi.NewClient(addr, time.Second, 0, slog.Default())

		var out []models.User
		err := client.GetData(ctx, addr+"/users", 0, &out)

		require.ErrorIs(t, err, storeapi.ErrFetchFailed)
	})

	t.Run("HTTP error status", func(t *testing.T) {
		client := newTestClient(func(_ *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusTooManyRequests, `{"error":"Rate limit exceeded"}`), nil
		})

		var out []models.User
		err := client.GetData(ctx, storeapi.DefaultBaseURL+"/users", 0, &out)

		require.ErrorIs(t, err, storeapi.ErrFetchFailed)
		assert.Contains(t, err.Error(), "store API returned status 429")
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		client := newTestClient(func(_ *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `invalid json`), nil
		})

		var out []models.User
		err := client.GetData(ctx, storeapi.DefaultBaseURL+"/users", 0, &out)

		require.ErrorIs(t, err, storeapi.ErrFetchFailed)
		assert.Contains(t, err.Error(), "failed to decode response")
	})

	t.Run("unsupported content encoding", func(t *testing.T) {
		client := newTestClient(func(_ *http.Request) (*http.Response, error) {
			resp := jsonResponse(http.StatusOK, `[]`)
			resp.Header.Set("Content-Encoding", "zstd")
			return resp, nil
		})

		var out []models.User
		err := client.GetData(ctx, storeapi.DefaultBaseURL+"/users", 0, &out)

		require.ErrorIs(t, err, storeapi.ErrFetchFailed)
		assert.Contains(t, err.Error(), "unsupported content encoding")
	})

	t.Run("timeout cancels request", func(t *testing.T) {
		client := newTestClient(func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		})

		var out []models.User
		start := time.Now()
		err := client.GetData(ctx, storeapi.DefaultBaseURL+"/users", 20*time.Millisecond, &out)

		require.ErrorIs(t, err, storeapi.ErrRequestTimeout)
		require.NotErrorIs(t, err, storeapi.ErrFetchFailed)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("cancelled parent context is not a timeout", func(t *testing.T) {
		newCtx, cancel := context.WithCancel(context.Background())
		cancel()

		client := newTestClient(func(req *http.Request) (*http.Response, error) {
			return nil, req.Context().Err()
		})

		var out []models.User
		err := client.GetData(newCtx, storeapi.DefaultBaseURL+"/users", 0, &out)

		require.ErrorIs(t, err, storeapi.ErrFetchFailed)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestClient_GetDataServer(t *testing.T) {
	ctx := t.Context()

	t.Run("gzip encoded body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "gzip, deflate, br", r.Header.Get("Accept-Encoding"))
			w.Header().Set("Content-Encoding", "gzip")
			w.Header().Set("Content-Type", "application/json")
			gz := gzip.NewWriter(w)
			_, _ = gz.Write([]byte(`[{"id":3,"category":"jewelery","price":9.99}]`))
			_ = gz.Close()
		}))
		defer server.Close()

		client := storeapi.NewClient(server.URL, time.Second, 0, slog.Default())
		products, err := client.Products(ctx)

		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "jewelery", products[0].Category)
	})

	t.Run("deflate encoded body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Encoding", "deflate")
			zw := zlib.NewWriter(w)
			_, _ = zw.Write([]byte(`[{"id":4,"category":"electronics","price":64}]`))
			_ = zw.Close()
		}))
		defer server.Close()

		client := storeapi.NewClient(server.URL, time.Second, 0, slog.Default())
		products, err := client.Products(ctx)

		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "electronics", products[0].Category)
	})

	t.Run("brotli encoded body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Encoding", "br")
			bw := brotli.NewWriter(w)
			_, _ = bw.Write([]byte(`[{"id":5,"category":"men's clothing","price":22.3}]`))
			_ = bw.Close()
		}))
		defer server.Close()

		client := storeapi.NewClient(server.URL, time.Second, 0, slog.Default())
		products, err := client.Products(ctx)

		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "men's clothing", products[0].Category)
	})

	t.Run("gzip body stalled after headers times out", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Encoding", "gzip")
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		client := storeapi.NewClient(server.URL, 50*time.Millisecond, 0, slog.Default())
		products, err := client.Products(ctx)

		require.Nil(t, products)
		require.ErrorIs(t, err, storeapi.ErrRequestTimeout)
		require.NotErrorIs(t, err, storeapi.ErrFetchFailed)
	})

	t.Run("slow server times out", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
			_, _ = w.Write([]byte(`[]`))
		}))
		defer server.Close()
		defer close(release)

		client := storeapi.NewClient(server.URL, 50*time.Millisecond, 0, slog.Default())
		users, err := client.Users(ctx)

		require.Nil(t, users)
		require.ErrorIs(t, err, storeapi.ErrRequestTimeout)
	})
}
