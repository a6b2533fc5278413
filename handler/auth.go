package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	salescrm "github.com/phbpx/sales-crm"
)

var (
	errMissingToken = errors.New("authorization header must be in format 'Bearer <token>'")
	errInvalidToken = errors.New("the provided token is invalid or expired")
)

type ctxKey int

const actorKey ctxKey = 1

// Claims is the payload of the bearer tokens accepted by the API. The
// subject is the user id.
type Claims struct {
	Role salescrm.Role `json:"role"`
	jwt.RegisteredClaims
}

// WithActor returns a copy of ctx carrying the actor.
func WithActor(ctx context.Context, a salescrm.Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFrom returns the actor stored by Authenticate.
func ActorFrom(ctx context.Context) (salescrm.Actor, bool) {
	a, ok := ctx.Value(actorKey).(salescrm.Actor)
	return a, ok
}

// Authenticate verifies HS256 bearer tokens signed with secret and stores the
// caller in the request context.
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			header := r.Header.Get("Authorization")
			raw := strings.TrimPrefix(header, "Bearer ")
			if header == "" || raw == header || raw == "" {
				respondErr(ctx, rw, http.StatusUnauthorized, errMissingToken)
				return
			}

			var claims Claims
			token, err := parser.ParseWithClaims(raw, &claims, keyFunc)
			if err != nil || !token.Valid || claims.Subject == "" || !claims.Role.Valid() {
				respondErr(ctx, rw, http.StatusUnauthorized, errInvalidToken)
				return
			}

			actor := salescrm.Actor{UserID: claims.Subject, Role: claims.Role}
			next.ServeHTTP(rw, r.WithContext(WithActor(ctx, actor)))
		})
	}
}

// RequireManager lets only owners and managers through.
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok || !actor.Manages() {
			respondErr(r.Context(), rw, http.StatusForbidden, salescrm.ErrForbidden)
			return
		}
		next.ServeHTTP(rw, r)
	})
}

// actor returns the authenticated caller. Routes are always mounted behind
// Authenticate, so a missing actor is a wiring bug.
func actor(r *http.Request) salescrm.Actor {
	a, ok := ActorFrom(r.Context())
	if !ok {
		panic("handler: request reached a route without Authenticate")
	}
	return a
}
