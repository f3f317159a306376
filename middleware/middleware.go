package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"subiclife/globals"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

type Middleware func(httprouter.Handle) httprouter.Handle

// Chain composes middlewares left to right.
func Chain(middlewares ...Middleware) func(httprouter.Handle) httprouter.Handle {
	return func(final httprouter.Handle) httprouter.Handle {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// PortalClaims mark a merchant portal session. This is a session token,
// not an authentication scheme: the portal has no credentials.
type PortalClaims struct {
	PartnerID string `json:"partnerId"`
	jwt.RegisteredClaims
}

// IssuePortalToken signs a session token for a partner.
func IssuePortalToken(partnerID string, now time.Time) (string, error) {
	claims := PortalClaims{
		PartnerID: partnerID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(12 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(globals.JwtSecret)
}

// PortalSession requires a valid portal token and stores the partner id
// in the request context.
func PortalSession(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString := r.Header.Get("Authorization")
		if len(tokenString) < 8 || tokenString[:7] != "Bearer " {
			http.Error(w, "Missing portal session", http.StatusUnauthorized)
			return
		}
		claims := &PortalClaims{}
		token, err := jwt.ParseWithClaims(tokenString[7:], claims, func(token *jwt.Token) (any, error) {
			return globals.JwtSecret, nil
		})
		if err != nil || !token.Valid || claims.PartnerID == "" {
			http.Error(w, "Invalid portal session", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), globals.PartnerIDKey, claims.PartnerID)
		next(w, r.WithContext(ctx), ps)
	}
}

// PartnerIDFromContext returns the partner id set by PortalSession.
func PartnerIDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(globals.PartnerIDKey).(string)
	if !ok || id == "" {
		return "", fmt.Errorf("no portal session in context")
	}
	return id, nil
}
