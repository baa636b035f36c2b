package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/md-rashed-zaman/slotbook/libs/auth"
	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type routeConfig struct {
	AuthURL    string
	BookingURL string
	JWTSecret  string
}

func registerRoutes(mux *http.ServeMux, cfg routeConfig) {
	authProxy := newProxy(cfg.AuthURL)
	bookingProxy := newProxy(cfg.BookingURL)

	// The auth service checks its own bearer tokens on /me.
	registerProxy(mux, "/api/v1/auth", authProxy)
	registerProxy(mux, "/api/v1/organizations", requireAuth(requireRole(bookingProxy, auth.RoleOwner, auth.RoleAdmin), cfg.JWTSecret))
}

func newProxy(raw string) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(mustParseURL(raw))
	proxy.Transport = otelhttp.NewTransport(http.DefaultTransport)
	return proxy
}

func registerProxy(mux *http.ServeMux, prefix string, handler http.Handler) {
	if !strings.HasSuffix(prefix, "/") {
		mux.Handle(prefix, handler)
		mux.Handle(prefix+"/", handler)
		return
	}
	mux.Handle(prefix, handler)
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// requireAuth verifies the bearer token and replaces any client supplied
// identity headers with the token's claims.
func requireAuth(next http.Handler, jwtSecret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") || len(strings.TrimSpace(authHeader)) <= len("Bearer ") {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid Authorization header")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := auth.ParseAndVerifyHS256(token, jwtSecret)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		r.Header.Del(httpx.UserIDHeader)
		r.Header.Del(httpx.RoleHeader)
		r.Header.Set(httpx.UserIDHeader, claims.Subject)
		r.Header.Set(httpx.RoleHeader, claims.Role)
		next.ServeHTTP(w, r)
	})
}

func requireRole(next http.Handler, roles ...string) http.Handler {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := r.Header.Get(httpx.RoleHeader)
		if _, ok := allowed[role]; !ok {
			httpx.WriteError(w, http.StatusForbidden, "forbidden", "role not allowed")
			return
		}
		next.ServeHTTP(w, r)
	})
}
