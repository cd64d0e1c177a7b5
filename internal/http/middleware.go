package http

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/kajal19803/dairyfrontend/internal/backend"
	"github.com/kajal19803/dairyfrontend/pkg/logger"
	"go.uber.org/zap"
)

const (
	ProfileHeader = "X-Profile-ID"
	ProfileCookie = "profile_id"
)

var profileIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ProfileMiddleware resolves the browser profile a request belongs to. An
// explicit header wins over the cookie; a request carrying neither gets a
// fresh profile and a cookie to keep it.
func ProfileMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profileID := r.Header.Get(ProfileHeader)
		if profileID != "" && !profileIDPattern.MatchString(profileID) {
			respondError(w, http.StatusBadRequest, "invalid_argument", "invalid profile id")
			return
		}

		if profileID == "" {
			if c, err := r.Cookie(ProfileCookie); err == nil && profileIDPattern.MatchString(c.Value) {
				profileID = c.Value
			}
		}

		if profileID == "" {
			profileID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     ProfileCookie,
				Value:    profileID,
				Path:     "/",
				MaxAge:   int((365 * 24 * time.Hour).Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), profileIDKey, profileID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthMiddleware forwards the caller's bearer token to the backend and reads
// who the caller is from its claims. The backend verifies the signature.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := backend.WithToken(r.Context(), token)
		if id, ok := identityFromToken(token); ok {
			ctx = context.WithValue(ctx, identityKey, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFromToken(token string) (Identity, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}, false
	}

	id := Identity{
		UserID: claimString(claims, "id"),
		Name:   claimString(claims, "name"),
		Email:  claimString(claims, "email"),
	}
	if id.UserID == "" {
		id.UserID, _ = claims.GetSubject()
	}
	return id, id.UserID != ""
}

func claimString(claims jwt.MapClaims, name string) string {
	s, _ := claims[name].(string)
	return s
}

// LoggingMiddleware writes one line per request.
func LoggingMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.WithContext(r.Context(), log).Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", getRequestID(r.Context())),
			)
		})
	}
}
