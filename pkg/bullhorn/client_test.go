package bullhorn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/httpclient"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func testClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	return New(cfg, httpclient.NewClient(httpclient.DefaultConfig(), testLogger()), testLogger())
}

func TestHostInfix(t *testing.T) {
	tests := []struct {
		name     string
		rawURL   string
		prefix   string
		expected string
		ok       bool
	}{
		{
			name:     "auth host",
			rawURL:   "https://auth-east.bullhornstaffing.com/oauth/authorize",
			prefix:   "auth-",
			expected: "east",
			ok:       true,
		},
		{
			name:     "rest host",
			rawURL:   "https://rest-west9.bullhornstaffing.com/rest-services/abc",
			prefix:   "rest-",
			expected: "west9",
			ok:       true,
		},
		{
			name:   "missing prefix",
			rawURL: "https://example.com",
			prefix: "auth-",
			ok:     false,
		},
		{
			name:   "missing bullhorn suffix",
			rawURL: "https://auth-east.example.com",
			prefix: "auth-",
			ok:     false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			value, ok := hostInfix(test.rawURL, test.prefix)

			assert.Equal(t, test.ok, ok)
			assert.Equal(t, test.expected, value)
		})
	}
}

func TestDataCenter(t *testing.T) {
	t.Run("resolves both hosts", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "pam", r.URL.Query().Get("username"))
			json.NewEncoder(w).Encode(map[string]string{
				"oauthUrl": "https://auth-east.bullhornstaffing.com/oauth",
				"restUrl":  "https://rest-east.bullhornstaffing.com/rest-services",
			})
		}))
		defer server.Close()

		c := testClient(t, Config{Username: "pam", LoginInfoURL: server.URL})

		authHost, restHost, err := c.dataCenter(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "east", authHost)
		assert.Equal(t, "east", restHost)
	})

	t.Run("503 is a transient error, not an auth error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		c := testClient(t, Config{LoginInfoURL: server.URL})

		_, _, err := c.dataCenter(context.Background())

		require.Error(t, err)
		assert.False(t, httperror.IsHTTPError(err))
	})

	t.Run("401 is an auth error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		c := testClient(t, Config{LoginInfoURL: server.URL})

		_, _, err := c.dataCenter(context.Background())

		require.Error(t, err)
		assert.True(t, httperror.IsHTTPError(err))
		assert.Equal(t, http.StatusUnauthorized, httperror.GetStatusCode(err))
	})
}

func TestPermanentPlacements(t *testing.T) {
	t.Run("follows pagination until a short page", func(t *testing.T) {
		var starts []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/query/Placement", r.URL.Path)
			assert.Equal(t, "token-123", r.URL.Query().Get("BhRestToken"))
			assert.Contains(t, r.URL.Query().Get("where"), "employmentType='Permanent'")

			start := r.URL.Query().Get("start")
			starts = append(starts, start)

			page := map[string]any{"total": 3, "data": []map[string]any{
				{"id": 1, "flatFee": 1000.0},
				{"id": 2, "flatFee": 2000.0},
			}}
			if start != "0" {
				page["data"] = []map[string]any{{"id": 3, "flatFee": 3000.0}}
			}
			json.NewEncoder(w).Encode(page)
		}))
		defer server.Close()

		c := testClient(t, Config{PageSize: 2})
		c.session = &session{restURL: server.URL, bhRestToken: "token-123"}

		placements, err := c.PermanentPlacements(context.Background(), time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))

		require.NoError(t, err)
		require.Len(t, placements, 3)
		assert.Equal(t, []string{"0", "2"}, starts)
		assert.Equal(t, 3, placements[2].ID)
	})

	t.Run("401 propagates as auth error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		c := testClient(t, Config{PageSize: 500})
		c.session = &session{restURL: server.URL, bhRestToken: "expired"}

		_, err := c.PermanentPlacements(context.Background(), time.Now())

		require.Error(t, err)
		assert.True(t, httperror.IsHTTPError(err))
		assert.Equal(t, http.StatusUnauthorized, httperror.GetStatusCode(err))
	})
}
