package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/config"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/errs"
)

const (
	ctxSubjectKey = "auth_subject"
	ctxRolesKey   = "auth_roles"
)

var errNoToken = errors.New("missing bearer token")

// NewJWT returns an Echo middleware that requires a valid HS256 access token
// and stores its subject and roles in the context.
func NewJWT(cfg config.Config) echo.MiddlewareFunc {
	return jwtMiddleware(cfg, true)
}

// OptionalJWT authenticates the caller when a bearer token is present. A
// request without one passes through anonymously; an invalid token is still
// rejected.
func OptionalJWT(cfg config.Config) echo.MiddlewareFunc {
	return jwtMiddleware(cfg, false)
}

func jwtMiddleware(cfg config.Config, required bool) echo.MiddlewareFunc {
	key := []byte(cfg.JWTSigningKey)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sub, roles, err := parseBearer(c.Request().Header.Get(echo.HeaderAuthorization), key)
			if errors.Is(err, errNoToken) && !required {
				return next(c)
			}
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errs.Body{Kind: errs.Unauthenticated, Message: err.Error()})
			}
			c.Set(ctxSubjectKey, sub)
			c.Set(ctxRolesKey, roles)
			return next(c)
		}
	}
}

func parseBearer(header string, key []byte) (string, []string, error) {
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", nil, errNoToken
	}
	tok, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(*jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithLeeway(30*time.Second), jwt.WithIssuedAt(), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return "", nil, errors.New("invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", nil, errors.New("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return "", nil, errors.New("invalid subject")
	}
	var roles []string
	switch v := claims["roles"].(type) {
	case []any:
		for _, r := range v {
			if s, ok := r.(string); ok && s != "" {
				roles = append(roles, s)
			}
		}
	case string:
		roles = strings.Fields(v)
	}
	return sub, roles, nil
}

// Subject returns the authenticated caller's subject claim.
func Subject(c echo.Context) (string, bool) {
	s, ok := c.Get(ctxSubjectKey).(string)
	return s, ok && s != ""
}

// Roles returns the authenticated caller's roles.
func Roles(c echo.Context) []string {
	r, _ := c.Get(ctxRolesKey).([]string)
	return r
}

// HasRole reports whether the authenticated caller carries role.
func HasRole(c echo.Context, role string) bool {
	for _, r := range Roles(c) {
		if r == role {
			return true
		}
	}
	return false
}

// Sign issues an HS256 token for subject with roles. Used by notifyctl and tests.
func Sign(key, subject string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   subject,
		"roles": roles,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
}
