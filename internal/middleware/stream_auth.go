package middleware

import (
	"context"
	"fmt"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// StreamAuthenticator resolves the token carried by a streaming request to a user id.
// EventSource clients cannot set headers, so the token travels in the query string.
type StreamAuthenticator interface {
	Authenticate(ctx context.Context, token string) (uint, error)
}

// JWTStreamAuthenticator accepts the same tokens as JWTAuthMiddleware
type JWTStreamAuthenticator struct {
	secret string
}

// NewJWTStreamAuthenticator creates a JWTStreamAuthenticator
func NewJWTStreamAuthenticator(secret string) *JWTStreamAuthenticator {
	return &JWTStreamAuthenticator{secret: secret}
}

func (a *JWTStreamAuthenticator) Authenticate(_ context.Context, token string) (uint, error) {
	claims, err := ParseToken(a.secret, token)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// IDTokenVerifier is satisfied by *auth.Client
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseUserLookup finds the local user linked to a Firebase account
type FirebaseUserLookup interface {
	GetUserByFirebaseUID(firebaseUID string) (*models.User, error)
}

// FirebaseStreamAuthenticator verifies Firebase ID tokens and maps the UID to a local user
type FirebaseStreamAuthenticator struct {
	verifier IDTokenVerifier
	users    FirebaseUserLookup
}

// NewFirebaseStreamAuthenticator creates a FirebaseStreamAuthenticator
func NewFirebaseStreamAuthenticator(verifier IDTokenVerifier, users FirebaseUserLookup) *FirebaseStreamAuthenticator {
	return &FirebaseStreamAuthenticator{verifier: verifier, users: users}
}

func (a *FirebaseStreamAuthenticator) Authenticate(ctx context.Context, token string) (uint, error) {
	verified, err := a.verifier.VerifyIDToken(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	user, err := a.users.GetUserByFirebaseUID(verified.UID)
	if err != nil {
		return 0, fmt.Errorf("no user for firebase uid %s: %w", verified.UID, err)
	}
	return user.ID, nil
}

// ChainStreamAuthenticator tries each authenticator in order and returns the first success
type ChainStreamAuthenticator []StreamAuthenticator

func (chain ChainStreamAuthenticator) Authenticate(ctx context.Context, token string) (uint, error) {
	err := ErrInvalidToken
	for _, a := range chain {
		var id uint
		if id, err = a.Authenticate(ctx, token); err == nil {
			return id, nil
		}
	}
	return 0, err
}

// StreamAuthMiddleware authenticates the "token" query parameter and stores the user id
func StreamAuthMiddleware(authenticator StreamAuthenticator, log *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.QueryParam("token")
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
			}

			userID, err := authenticator.Authenticate(c.Request().Context(), token)
			if err != nil {
				log.WithError(err).Debug("stream authentication failed")
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(UserIDKey, userID)
			return next(c)
		}
	}
}
