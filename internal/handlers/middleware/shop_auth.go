// internal/handlers/middleware/shop_auth.go
package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ammerola/stocksync/internal/pkg/logger"
)

const (
	shopDomainHeader = "X-Shopify-Shop-Domain"
	hmacHeader       = "X-Shopify-Hmac-Sha256"
)

var shopDomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]*\.myshopify\.com$`)

// ValidShopDomain reports whether shop looks like a myshopify.com domain.
func ValidShopDomain(shop string) bool {
	return shopDomainPattern.MatchString(shop)
}

// DefaultSignatureMaxAge bounds how far a signed timestamp may drift from now.
const DefaultSignatureMaxAge = 5 * time.Minute

type shopAuthOptions struct {
	maxAge time.Duration
	now    func() time.Time
}

// ShopAuthOption tunes ShopAuth.
type ShopAuthOption func(*shopAuthOptions)

// WithSignatureMaxAge overrides DefaultSignatureMaxAge.
func WithSignatureMaxAge(d time.Duration) ShopAuthOption {
	return func(o *shopAuthOptions) { o.maxAge = d }
}

// WithClock replaces time.Now when checking signature freshness.
func WithClock(now func() time.Time) ShopAuthOption {
	return func(o *shopAuthOptions) { o.now = now }
}

// ShopAuth resolves the shop of a request and stores it in the context.
//
// Without a secret the shop comes from the X-Shopify-Shop-Domain header or
// the shop query parameter. With a secret the shop is taken only from the
// signed query: the query must carry shop, a fresh timestamp and a valid
// Shopify HMAC (hmac parameter or X-Shopify-Hmac-Sha256 header), and a
// shop header, when present, must name the same shop.
func ShopAuth(secret string, l *slog.Logger, opts ...ShopAuthOption) func(http.Handler) http.Handler {
	o := shopAuthOptions{maxAge: DefaultSignatureMaxAge, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.Query()
			headerShop := normalizeShop(r.Header.Get(shopDomainHeader))

			var shop string
			if secret == "" {
				shop = headerShop
				if shop == "" {
					shop = normalizeShop(query.Get("shop"))
				}
			} else {
				shop = normalizeShop(query.Get("shop"))
			}

			if !ValidShopDomain(shop) {
				status := http.StatusBadRequest
				if secret != "" && shop == "" && headerShop != "" {
					status = http.StatusUnauthorized
				}
				writeJSONError(w, status, "invalid shop domain")
				return
			}

			if secret != "" {
				if reason := verifySignedRequest(r, query, secret, shop, headerShop, o); reason != "" {
					l.WarnContext(r.Context(), "rejected shop request",
						slog.String("shop", shop),
						slog.String("reason", reason),
						slog.String("path", r.URL.Path))
					writeJSONError(w, http.StatusUnauthorized, "invalid signature")
					return
				}
			}

			ctx := logger.WithShop(r.Context(), shop)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// verifySignedRequest returns why a signed request is rejected, or "".
func verifySignedRequest(r *http.Request, query url.Values, secret, shop, headerShop string, o shopAuthOptions) string {
	if headerShop != "" && headerShop != shop {
		return "shop header does not match signed shop"
	}

	provided := query.Get("hmac")
	if provided == "" {
		provided = r.Header.Get(hmacHeader)
	}
	if provided == "" || !VerifyQueryHMAC(query, secret, provided) {
		return "signature mismatch"
	}

	ts, err := strconv.ParseInt(query.Get("timestamp"), 10, 64)
	if err != nil {
		return "missing timestamp"
	}
	age := o.now().Sub(time.Unix(ts, 0))
	if age > o.maxAge || age < -o.maxAge {
		return "stale timestamp"
	}
	return ""
}

func normalizeShop(shop string) string {
	return strings.ToLower(strings.TrimSpace(shop))
}

// VerifyQueryHMAC checks a hex HMAC-SHA256 over the sorted query parameters,
// excluding hmac and signature.
func VerifyQueryHMAC(query url.Values, secret, providedHex string) bool {
	expected := SignQuery(query, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(providedHex)))
}

// SignQuery computes the hex HMAC-SHA256 VerifyQueryHMAC expects.
func SignQuery(query url.Values, secret string) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(query[k], ","))
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		slog.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}
