package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// loggingMiddleware logs HTTP requests with method, path, status, duration and request id.
func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)
			rw := &responseWriter{w, http.StatusOK}
			next.ServeHTTP(rw, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.statusCode,
				"duration", time.Since(start),
				"request_id", reqID,
			)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code and writes the header.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

var errUnauthenticated = errors.New("unauthenticated")

// Authenticator resolves the caller identity from a bearer credential.
type Authenticator struct {
	keys           map[string]string
	jwtSecret      []byte
	jwtIssuer      string
	allowAnonymous bool
}

// NewAuthenticator builds an Authenticator from the API key table and JWT settings.
func NewAuthenticator(cfg Config) (*Authenticator, error) {
	keys, err := parseAPIKeys(cfg.APIKeys)
	if err != nil {
		return nil, err
	}
	a := &Authenticator{
		keys:           keys,
		jwtIssuer:      cfg.JWTIssuer,
		allowAnonymous: cfg.AllowAnonymous,
	}
	if cfg.JWTSecret != "" {
		a.jwtSecret = []byte(cfg.JWTSecret)
	}
	return a, nil
}

// Identify returns the caller identity for an Authorization header value.
func (a *Authenticator) Identify(authHeader string) (string, error) {
	if authHeader == "" {
		if a.allowAnonymous {
			return AnonymousCaller, nil
		}
		return "", errUnauthenticated
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return "", errUnauthenticated
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
	if token == "" {
		return "", errUnauthenticated
	}
	if identity, ok := a.keys[token]; ok {
		return identity, nil
	}
	if a.jwtSecret == nil {
		return "", errUnauthenticated
	}
	return a.identifyJWT(token)
}

func (a *Authenticator) identifyJWT(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.jwtIssuer != "" {
		opts = append(opts, jwt.WithIssuer(a.jwtIssuer))
	}
	var claims jwt.RegisteredClaims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.jwtSecret, nil
	}, opts...); err != nil {
		return "", fmt.Errorf("%w: %v", errUnauthenticated, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: token has no subject", errUnauthenticated)
	}
	return claims.Subject, nil
}

// authMiddleware resolves the caller identity and stores it in the request context.
func authMiddleware(auth *Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := auth.Identify(r.Header.Get("Authorization"))
			if err != nil {
				logger.Debug("authentication failed", "path", r.URL.Path, "error", err)
				w.Header().Set("WWW-Authenticate", `Bearer realm="itemstore", error="invalid_token"`)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// parseAPIKeys parses a comma-separated list of key=identity pairs.
func parseAPIKeys(s string) (map[string]string, error) {
	keys := make(map[string]string)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, identity, ok := strings.Cut(entry, "=")
		key, identity = strings.TrimSpace(key), strings.TrimSpace(identity)
		if !ok || key == "" || identity == "" {
			return nil, fmt.Errorf("malformed entry %q, want key=identity", entry)
		}
		keys[key] = identity
	}
	return keys, nil
}
