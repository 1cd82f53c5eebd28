package prices

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSourcePrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"start": "2025-06-01T13:00:00Z", "price": 0.30},
			{"start": "2025-06-01T12:00:00Z", "price": 0.25, "sell_price": 0.20},
			{"start": "bogus", "price": 0.99}
		]`))
	}))
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL, time.Second)
	require.NoError(t, err)

	points, err := src.Prices(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 0.25, points[0].BuyPrice)
	assert.True(t, points[0].Start.Before(points[1].Start))
}

func TestHTTPSourceErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = src.Prices(context.Background(), time.Now())
	assert.Error(t, err)
}

func TestNewHTTPSourceRequiresURL(t *testing.T) {
	_, err := NewHTTPSource("", time.Second)
	assert.Error(t, err)
}
