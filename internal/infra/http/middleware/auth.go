package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xavierca1/clientpulse/internal/entity"
	"github.com/xavierca1/clientpulse/internal/usecase"
)

const DefaultTokenTTL = 24 * time.Hour

type Claims struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// JWTAuth issues and verifies HS256 access tokens.
type JWTAuth struct {
	Key []byte
	TTL time.Duration
	Now func() time.Time
}

func NewJWTAuth(secret string, ttl time.Duration) *JWTAuth {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTAuth{Key: []byte(secret), TTL: ttl, Now: time.Now}
}

func (a *JWTAuth) Issue(user *entity.User) (string, time.Time, error) {
	now := a.Now()
	expires := now.Add(a.TTL)
	claims := Claims{
		UserID:   user.ID,
		TenantID: user.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Key)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// Parse verifies the signature and expiry and returns the claims.
func (a *JWTAuth) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return a.Key, nil
	}, jwt.WithTimeFunc(a.Now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

type actorKey struct{}

func WithActor(ctx context.Context, actor usecase.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored by Authenticate.
func ActorFrom(ctx context.Context) (usecase.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(usecase.Actor)
	return actor, ok
}

// Authenticate rejects requests without a valid bearer token.
func (a *JWTAuth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		tokenStr, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			unauthorized(w, "Missing or invalid Authorization header")
			return
		}

		claims, err := a.Parse(tokenStr)
		if err != nil {
			unauthorized(w, "Invalid or expired token")
			return
		}

		ctx := WithActor(r.Context(), usecase.Actor{UserID: claims.UserID, TenantID: claims.TenantID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": usecase.CodeUnauthorized, "message": message})
}
