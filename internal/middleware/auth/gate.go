package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/ironloft/gymapp/internal/models"
	"github.com/ironloft/gymapp/internal/repo"
	"github.com/ironloft/gymapp/internal/tokens"
)

const (
	ctxUserID = "userID"
	ctxEmail  = "email"
)

// Gate resolves the caller's identity from a bearer token and enforces role
// policy. It is built once at startup and passed in explicitly; there is no
// ambient global state.
type Gate struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
}

func NewGate(r *repo.GormRepo, jwtSecret []byte) *Gate {
	return &Gate{Repo: r, JWTSecret: jwtSecret}
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if ck, err := c.Cookie("accessToken"); err == nil {
		return ck.Value
	}
	return ""
}

// RequireAuth rejects the request with 401 before any handler logic when no
// valid access token is presented.
func (g *Gate) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, g.JWTSecret)
		if err != nil || claims == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		id, err := tokens.SubjectID(claims.Subject)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(ctxUserID, id)
		c.Set(ctxEmail, claims.Email)
		return next(c)
	}
}

// RequireStaff allows only admin and coach roles through. The role is read
// from the store on every request, not from token claims, so an out-of-band
// promotion or demotion takes effect without re-login.
func (g *Gate) RequireStaff(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := CallerID(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		user, err := g.Repo.UserByID(c.Request().Context(), id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot resolve caller")
		}
		if user.Role != models.RoleAdmin && user.Role != models.RoleCoach {
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
		return next(c)
	}
}

// RequireAdmin is the gate for the role-change path: coaches do not qualify.
func (g *Gate) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := CallerID(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		user, err := g.Repo.UserByID(c.Request().Context(), id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot resolve caller")
		}
		if user.Role != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
		return next(c)
	}
}

func CallerID(c echo.Context) (uint, bool) {
	id, ok := c.Get(ctxUserID).(uint)
	return id, ok
}

func CallerEmail(c echo.Context) (string, bool) {
	email, ok := c.Get(ctxEmail).(string)
	return email, ok
}
