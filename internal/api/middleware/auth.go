package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/accounthq/accounts-api/internal/core/domain"
	"github.com/accounthq/accounts-api/internal/core/ports"
)

// IdentityLoader is the slice of the account service the middleware needs:
// the identity-lookup contract.
type IdentityLoader interface {
	LoadIdentity(ctx context.Context, username string) (*domain.Identity, error)
}

// Auth authenticates each request and injects "username" and "role" into the
// echo context. Two schemes are accepted:
//
//   - Basic: the username/password pair is checked against the stored
//     identity's password hash.
//   - Bearer: an HS256 JWT issued by an external identity provider is
//     verified against jwtSecret; the subject claim is then resolved through
//     the identity loader, so revoked accounts and role changes take effect
//     immediately. This service never issues tokens itself.
func Auth(jwtSecret string, identities IdentityLoader, hasher ports.PasswordHasher) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			var (
				identity *domain.Identity
				err      error
			)
			switch {
			case strings.EqualFold(parts[0], "basic"):
				identity, err = basicIdentity(c, identities, hasher)
			case strings.EqualFold(parts[0], "bearer"):
				identity, err = bearerIdentity(c, parts[1], jwtSecret, identities)
			default:
				return echo.NewHTTPError(http.StatusUnauthorized, "unsupported authorization scheme")
			}
			if err != nil {
				return err
			}

			if !identity.AccountNonExpired || !identity.AccountNonLocked || !identity.CredentialsNonExpired {
				return echo.NewHTTPError(http.StatusUnauthorized, "account disabled")
			}

			c.Set("username", identity.Username)
			c.Set("role", identity.Authority)
			return next(c)
		}
	}
}

func basicIdentity(c echo.Context, identities IdentityLoader, hasher ports.PasswordHasher) (*domain.Identity, error) {
	username, password, ok := c.Request().BasicAuth()
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid basic credentials")
	}

	identity, err := identities.LoadIdentity(c.Request().Context(), username)
	if err != nil {
		// A missing account reads the same as a wrong password.
		return nil, domain.ErrInvalidCredentials
	}
	if !hasher.Verify(password, identity.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return identity, nil
}

func bearerIdentity(c echo.Context, token, jwtSecret string, identities IdentityLoader) (*domain.Identity, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "token missing subject")
	}

	identity, lerr := identities.LoadIdentity(c.Request().Context(), subject)
	if lerr != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unknown token subject")
	}
	return identity, nil
}
