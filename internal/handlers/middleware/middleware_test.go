package middleware_test

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stocksync/internal/handlers/middleware"
	"github.com/ammerola/stocksync/internal/pkg/logger"
	"github.com/ammerola/stocksync/test/helpers"
)

func TestRequestID(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, logger.RequestID(r.Context()))

		w.WriteHeader(http.StatusOK)
	})

	// Wrap with RequestID middleware
	wrapped := middleware.RequestID(handler)

	tests := []struct {
		name              string
		existingRequestID string
		validateResponse  func(*testing.T, *http.Response)
	}{
		{
			name:              "generates_new_request_id",
			existingRequestID: "",
			validateResponse: func(t *testing.T, resp *http.Response) {
				requestID := resp.Header.Get("X-Request-ID")
				assert.NotEmpty(t, requestID)
				assert.Len(t, requestID, 36) // UUID length
			},
		},
		{
			name:              "uses_existing_request_id",
			existingRequestID: "existing-id-123",
			validateResponse: func(t *testing.T, resp *http.Response) {
				requestID := resp.Header.Get("X-Request-ID")
				assert.Equal(t, "existing-id-123", requestID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.existingRequestID != "" {
				req.Header.Set("X-Request-ID", tt.existingRequestID)
			}
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			resp := w.Result()
			tt.validateResponse(t, resp)
		})
	}
}

func TestLogger(t *testing.T) {
	l := helpers.TestLogger()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("test response"))
	})

	wrapped := middleware.Logger(l)(handler)

	req := httptest.NewRequest("GET", "/test", nil)
	req = req.WithContext(logger.WithRequestID(req.Context(), "test-123"))
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	// Verify response
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test response", w.Body.String())
	assert.Equal(t, "test-123", w.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	l := helpers.TestLogger()

	tests := []struct {
		name           string
		handler        http.HandlerFunc
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "recovers_from_panic",
			handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("test panic")
			}),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "Internal Server Error",
		},
		{
			name: "passes_through_normal_response",
			handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("normal response"))
			}),
			expectedStatus: http.StatusOK,
			expectedBody:   "normal response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := middleware.Recovery(l)(tt.handler)

			req := httptest.NewRequest("GET", "/test", nil)
			req = req.WithContext(logger.WithRequestID(req.Context(), "test-123"))
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestRateLimit(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Allow 2 requests per second
	wrapped := middleware.RateLimit(2, time.Second)(handler)

	// First two requests should succeed
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "127.0.0.1:1234"
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	// Third request should be rate limited
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Different IP should work
	req.RemoteAddr = "192.168.1.1:5678"
	w = httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		allowedOrigins []string
		requestOrigin  string
		requestMethod  string
		expectedStatus int
		checkHeaders   func(*testing.T, http.Header)
	}{
		{
			name:           "allows_wildcard_origin",
			allowedOrigins: []string{"*"},
			requestOrigin:  "https://example.com",
			requestMethod:  "GET",
			expectedStatus: http.StatusOK,
			checkHeaders: func(t *testing.T, headers http.Header) {
				assert.Equal(t, "https://example.com", headers.Get("Access-Control-Allow-Origin"))
			},
		},
		{
			name:           "allows_specific_origin",
			allowedOrigins: []string{"https://app.example.com", "https://admin.example.com"},
			requestOrigin:  "https://app.example.com",
			requestMethod:  "GET",
			expectedStatus: http.StatusOK,
			checkHeaders: func(t *testing.T, headers http.Header) {
				assert.Equal(t, "https://app.example.com", headers.Get("Access-Control-Allow-Origin"))
			},
		},
		{
			name:           "handles_preflight_request",
			allowedOrigins: []string{"*"},
			requestOrigin:  "https://example.com",
			requestMethod:  "OPTIONS",
			expectedStatus: http.StatusNoContent,
			checkHeaders: func(t *testing.T, headers http.Header) {
				assert.Equal(t, "https://example.com", headers.Get("Access-Control-Allow-Origin"))
				assert.NotEmpty(t, headers.Get("Access-Control-Allow-Methods"))
				assert.NotEmpty(t, headers.Get("Access-Control-Allow-Headers"))
			},
		},
		{
			name:           "blocks_unallowed_origin",
			allowedOrigins: []string{"https://allowed.com"},
			requestOrigin:  "https://notallowed.com",
			requestMethod:  "GET",
			expectedStatus: http.StatusOK,
			checkHeaders: func(t *testing.T, headers http.Header) {
				assert.Empty(t, headers.Get("Access-Control-Allow-Origin"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := middleware.CORS(tt.allowedOrigins)(handler)

			req := httptest.NewRequest(tt.requestMethod, "/test", nil)
			req.Header.Set("Origin", tt.requestOrigin)
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.checkHeaders(t, w.Header())
		})
	}
}

func TestShopAuth(t *testing.T) {
	const secret = "shhh"

	var gotShop string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotShop, _ = r.Context().Value(logger.ContextKeyShop).(string)
		w.WriteHeader(http.StatusOK)
	})

	now := time.Unix(1700000060, 0)
	signed := url.Values{"shop": {"demo.myshopify.com"}, "timestamp": {"1700000000"}}
	signature := middleware.SignQuery(signed, secret)

	signedURL := func(v url.Values) string {
		return "/api/v1/sync?" + v.Encode() + "&hmac=" + middleware.SignQuery(v, secret)
	}

	tests := []struct {
		name           string
		secret         string
		target         string
		headers        map[string]string
		expectedStatus int
		expectedShop   string
	}{
		{
			name:           "header_shop_without_secret",
			target:         "/api/v1/sync",
			headers:        map[string]string{"X-Shopify-Shop-Domain": "Demo.myshopify.com"},
			expectedStatus: http.StatusOK,
			expectedShop:   "demo.myshopify.com",
		},
		{
			name:           "query_shop_without_secret",
			target:         "/api/v1/sync?shop=demo.myshopify.com",
			expectedStatus: http.StatusOK,
			expectedShop:   "demo.myshopify.com",
		},
		{
			name:           "missing_shop",
			target:         "/api/v1/sync",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "foreign_domain",
			target:         "/api/v1/sync?shop=evil.example.com",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "valid_query_signature",
			secret:         secret,
			target:         "/api/v1/sync?" + signed.Encode() + "&hmac=" + signature,
			expectedStatus: http.StatusOK,
			expectedShop:   "demo.myshopify.com",
		},
		{
			name:           "valid_header_signature",
			secret:         secret,
			target:         "/api/v1/sync?" + signed.Encode(),
			headers:        map[string]string{"X-Shopify-Hmac-Sha256": strings.ToUpper(signature)},
			expectedStatus: http.StatusOK,
			expectedShop:   "demo.myshopify.com",
		},
		{
			name:           "tampered_query",
			secret:         secret,
			target:         "/api/v1/sync?shop=demo.myshopify.com&timestamp=1700000001&hmac=" + signature,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing_signature",
			secret:         secret,
			target:         "/api/v1/sync?" + signed.Encode(),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "header_names_other_shop",
			secret:         secret,
			target:         "/api/v1/sync?" + signed.Encode() + "&hmac=" + signature,
			headers:        map[string]string{"X-Shopify-Shop-Domain": "victim.myshopify.com"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "header_matches_signed_shop",
			secret:         secret,
			target:         "/api/v1/sync?" + signed.Encode() + "&hmac=" + signature,
			headers:        map[string]string{"X-Shopify-Shop-Domain": "DEMO.myshopify.com"},
			expectedStatus: http.StatusOK,
			expectedShop:   "demo.myshopify.com",
		},
		{
			name:           "header_shop_without_signed_shop",
			secret:         secret,
			target:         signedURL(url.Values{"timestamp": {"1700000000"}}),
			headers:        map[string]string{"X-Shopify-Shop-Domain": "demo.myshopify.com"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "stale_timestamp",
			secret:         secret,
			target:         signedURL(url.Values{"shop": {"demo.myshopify.com"}, "timestamp": {"1699990000"}}),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing_timestamp",
			secret:         secret,
			target:         signedURL(url.Values{"shop": {"demo.myshopify.com"}}),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotShop = ""
			wrapped := middleware.ShopAuth(tt.secret, helpers.TestLogger(), middleware.WithClock(func() time.Time { return now }))(handler)

			req := httptest.NewRequest(http.MethodPost, tt.target, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedShop, gotShop)
			if w.Code != http.StatusOK {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestSecureHeaders(t *testing.T) {
	wrapped := middleware.SecureHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestCompression(t *testing.T) {
	body := strings.Repeat("sku,location,quantity\n", 50)
	wrapped := middleware.Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))

	t.Run("gzips_when_accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/export", nil)
		req.Header.Set("Accept-Encoding", "gzip, deflate")
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)

		assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
		zr, err := gzip.NewReader(w.Body)
		require.NoError(t, err)
		decoded, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t, body, string(decoded))
	})

	t.Run("plain_otherwise", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/export", nil)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, body, w.Body.String())
	})
}
