package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jdufresne12/web-portal/pkg/errors"
	"github.com/jdufresne12/web-portal/pkg/httpclient"
	"github.com/jdufresne12/web-portal/pkg/middleware"

	"github.com/jdufresne12/web-portal/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	doer := httpclient.New(httpclient.Config{
		Timeout:         5 * time.Second,
		MaxRetries:      0,
		RetryWaitMin:    time.Millisecond,
		RetryWaitMax:    time.Millisecond,
		MaxConnsPerHost: 10,
	})
	return NewClient(doer, srv.URL+"/", testLogger())
}

func authed() context.Context {
	return middleware.WithBearerToken(context.Background(), "session-token")
}

func TestListSponsors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/sponsors", r.URL.Path)
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"id":"A","title":"Acme","created":["2024-01-01"]},{"id":"b","title":"Beta","created":"2024-01-01"}]`))
	})

	got, err := client.ListSponsors(authed())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsHotFlash())
	assert.False(t, got[1].IsHotFlash())
}

func TestSaveSponsor_SendsJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/sponsor", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Acme", body["title"])
		assert.EqualValues(t, 0, body["couponsAvailable"])
		_, _ = w.Write([]byte(`{"id":"s-1","title":"Acme"}`))
	})

	out, err := client.SaveSponsor(authed(), &domain.SponsorDTO{ID: "s-1", Title: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "s-1", out.ID)
}

func TestSaveRecord_EmptyResponseBody(t *testing.T) {
	var path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.SaveRecord(authed(), &domain.ProductDTO{ID: "p"}))
	assert.Equal(t, "/product", path)
}

func TestDeleteRecord_RoutesByKind(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		paths = append(paths, r.URL.Path)
	})

	require.NoError(t, client.DeleteRecord(authed(), domain.KindProduct, "p-1"))
	require.NoError(t, client.DeleteRecord(authed(), domain.KindSponsor, "s-1"))
	assert.Equal(t, []string{"/product/p-1", "/sponsor/s-1"}, paths)
}

func TestListProductsByUserLevel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/user-level/lvl-1", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":"p","title":"Mug","userLevelID":"lvl-1","active":true}]`))
	})

	got, err := client.ListProductsByUserLevel(authed(), "lvl-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.TypeStarStore, got[0].ClassifiedType())
}

func TestListCoupons_PathByKind(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coupon/product/p-1", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":"c","code":"SKU-1","productID":"p-1","usageCount":1}]`))
	})

	got, err := client.ListCoupons(authed(), domain.KindProduct, "p-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "SKU-1", got[0].Code)
}

func TestSaveMedium_StripsTransientFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/medium", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.NotContains(t, string(raw), "draftId")
		assert.NotContains(t, string(raw), "previewUrl")
		assert.Contains(t, string(raw), `"url":"https://cdn/x.jpg"`)
	})

	err := client.SaveMedium(authed(), domain.MediaDTO{ID: "m", URL: "https://cdn/x.jpg", DraftID: "d", PreviewURL: "/p"})
	require.NoError(t, err)
}

func TestSignInGoogle_UsesIdentityToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sign-in/google", r.URL.Path)
		assert.Equal(t, "Bearer google-id-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"axisToken":"axis","userID":"u","email":"a@b.c"}`))
	})

	res, err := client.SignInGoogle(context.Background(), "google-id-token")
	require.NoError(t, err)
	assert.Equal(t, "axis", res.AxisToken)
}

func TestSignInGoogle_MissingToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.SignInGoogle(context.Background(), "id")
	assert.ErrorIs(t, err, apperrors.ErrBadGateway)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, apperrors.ErrUnauthorized},
		{http.StatusNotFound, apperrors.ErrNotFound},
		{http.StatusBadRequest, apperrors.ErrInvalidInput},
		{http.StatusBadGateway, apperrors.ErrBadGateway},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			})
			_, err := client.ListUserLevels(authed())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestTransportErrorIsBadGateway(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	doer := httpclient.New(httpclient.Config{Timeout: time.Second, MaxConnsPerHost: 1})
	client := NewClient(doer, srv.URL, testLogger())

	_, err := client.ListProducts(authed())
	assert.ErrorIs(t, err, apperrors.ErrBadGateway)
}

func TestCircuitBreaker_OpenUsesFallback(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	base := httpclient.New(httpclient.Config{Timeout: time.Second, MaxConnsPerHost: 1})
	cb := httpclient.NewCircuitBreakerClient(base, httpclient.CircuitBreakerConfig{
		Name:         "backend-test",
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  2,
	}, testLogger()).WithFallback(CircuitOpenFallback)
	client := NewClient(cb, srv.URL, testLogger())

	for i := 0; i < 2; i++ {
		_, err := client.ListSponsors(authed())
		assert.ErrorIs(t, err, apperrors.ErrBadGateway)
	}

	_, err := client.ListSponsors(authed())
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	assert.Equal(t, int32(2), calls.Load())
}
