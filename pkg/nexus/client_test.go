package nexus

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/reposweep/pkg/model"
)

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithHTTPClient(srv.Client()),
		WithBaseDelay(time.Millisecond),
	}, opts...)
	c, err := NewClient(srv.URL, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://nexus.example.com")
	assert.Error(t, err)

	_, err = NewClient("://nope")
	assert.Error(t, err)
}

func TestListComponents_FollowsContinuationToken(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/service/rest/v1/components", r.URL.Path)
		assert.Equal(t, "maven-releases", r.URL.Query().Get("repository"))

		switch r.URL.Query().Get("continuationToken") {
		case "":
			writeJSON(t, w, map[string]any{
				"items": []map[string]any{{
					"id": "c1", "repository": "maven-releases", "format": "maven2",
					"group": "org.acme", "name": "core", "version": "1.0.0",
					"assets": []map[string]any{{
						"id": "a1", "path": "org/acme/core/1.0.0/core-1.0.0.jar",
						"lastModified": "2025-01-01T10:00:00.000+00:00", "lastDownloaded": nil,
					}},
				}},
				"continuationToken": "next",
			})
		case "next":
			writeJSON(t, w, map[string]any{
				"items": []map[string]any{{
					"id": "c2", "repository": "maven-releases", "format": "maven2",
					"group": "org.acme", "name": "api", "version": "2.0.0",
				}},
				"continuationToken": nil,
			})
		default:
			t.Errorf("unexpected token %q", r.URL.Query().Get("continuationToken"))
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	components, err := c.ListComponents(context.Background(), "maven-releases")
	require.NoError(t, err)

	require.Len(t, components, 2)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "org.acme:core", components[0].Name)
	assert.Equal(t, model.FormatMaven, components[0].Format)
	require.Len(t, components[0].Assets, 1)
	assert.Equal(t, "2025-01-01T10:00:00.000+00:00", components[0].Assets[0].LastModified)
	assert.Empty(t, components[0].Assets[0].LastDownloaded)
	assert.Equal(t, "org.acme:api", components[1].Name)
}

func TestListComponents_StuckTokenFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"items": []any{}, "continuationToken": "same"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.ListComponents(context.Background(), "raw-hosted")
	assert.ErrorContains(t, err, "did not advance")
}

func TestListAssets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/service/rest/v1/assets", r.URL.Path)
		writeJSON(t, w, map[string]any{
			"items": []map[string]any{
				{"id": "a1", "path": "/builds/app/1.0/app.tgz", "lastModified": "2025-02-01T00:00:00Z"},
				{"id": "a2", "path": "/builds/app/1.1/app.tgz", "lastModified": "2025-03-01T00:00:00Z"},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	assets, err := c.ListAssets(context.Background(), "raw-hosted")
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "/builds/app/1.1/app.tgz", assets[1].Path)
}

func TestList_UnknownRepository(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "repository not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.ListComponents(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantErr  error
		wantHTTP bool
	}{
		{name: "no content", status: http.StatusNoContent},
		{name: "not found", status: http.StatusNotFound, wantErr: ErrNotFound},
		{name: "conflict", status: http.StatusConflict, wantErr: ErrConflict},
		{name: "forbidden", status: http.StatusForbidden, wantHTTP: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				assert.Equal(t, "/service/rest/v1/components/abc%3D%3D", r.URL.EscapedPath())
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := newTestClient(t, srv)
			err := c.DeleteComponent(context.Background(), "abc==")

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantHTTP:
				var httpErr *HTTPError
				require.ErrorAs(t, err, &httpErr)
				assert.Equal(t, tt.status, httpErr.StatusCode)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestDeleteAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/service/rest/v1/assets/a1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	assert.NoError(t, c.DeleteAsset(context.Background(), "a1"))
}

func TestRetry_RecoversFromServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithMaxRetries(3))
	require.NoError(t, c.Status(context.Background()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetry_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithMaxRetries(2))
	err := c.Status(context.Background())

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.True(t, httpErr.Retryable())
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetry_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithMaxRetries(5))
	err := c.DeleteComponent(context.Background(), "c1")
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, int32(1), calls.Load())
}

func TestBreaker_OpensAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithMaxRetries(0))
	for i := 0; i < 5; i++ {
		assert.Error(t, c.Status(context.Background()))
	}
	before := calls.Load()

	err := c.Status(context.Background())
	assert.ErrorIs(t, err, ErrUpstreamDown)
	assert.Equal(t, before, calls.Load())
}

func TestAuthenticators(t *testing.T) {
	tests := []struct {
		name  string
		auth  Authenticator
		check func(t *testing.T, r *http.Request)
	}{
		{
			name: "basic",
			auth: BasicAuth{Username: "cleanup", Password: "s3cret"},
			check: func(t *testing.T, r *http.Request) {
				user, pass, ok := r.BasicAuth()
				require.True(t, ok)
				assert.Equal(t, "cleanup", user)
				assert.Equal(t, "s3cret", pass)
			},
		},
		{
			name: "bearer",
			auth: BearerAuth{Token: "tok"},
			check: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			},
		},
		{
			name: "header",
			auth: HeaderAuth{Headers: map[string]string{"X-Api-Key": "k"}},
			check: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "k", r.Header.Get("X-Api-Key"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.check(t, r)
				assert.Equal(t, "reposweep-test", r.Header.Get("User-Agent"))
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			c := newTestClient(t, srv, WithAuthenticator(tt.auth), WithUserAgent("reposweep-test"))
			assert.NoError(t, c.Status(context.Background()))
		})
	}
}
