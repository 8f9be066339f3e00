package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ironloft/gymapp/internal/models"
	"github.com/ironloft/gymapp/internal/repo"
	"github.com/ironloft/gymapp/internal/tokens"
)

var testSecret = []byte("test-jwt-secret")

func newGate(t *testing.T) (*Gate, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return NewGate(&repo.GormRepo{DB: db}, testSecret), db
}

func serve(g *Gate, mw []echo.MiddlewareFunc, req *http.Request) *httptest.ResponseRecorder {
	e := echo.New()
	h := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/protected", h, mw...)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuthMissingToken(t *testing.T) {
	g, _ := newGate(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := serve(g, []echo.MiddlewareFunc{g.RequireAuth}, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthExpiredToken(t *testing.T) {
	g, _ := newGate(t)

	tok, err := tokens.SignAccess(1, "a@x.com", testSecret, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	rec := serve(g, []echo.MiddlewareFunc{g.RequireAuth}, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthWrongSecret(t *testing.T) {
	g, _ := newGate(t)

	tok, err := tokens.SignAccess(1, "a@x.com", []byte("other-secret"), time.Now().Add(time.Minute))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	rec := serve(g, []echo.MiddlewareFunc{g.RequireAuth}, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthAcceptsCookie(t *testing.T) {
	g, db := newGate(t)
	user := models.User{Email: "a@x.com", PasswordHash: "x", Salt: "x",
		FirstName: "Anna", LastName: "Smith", Role: models.RoleMember}
	require.NoError(t, db.Create(&user).Error)

	tok, err := tokens.SignAccess(user.ID, user.Email, testSecret, time.Now().Add(time.Minute))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: tok})
	rec := serve(g, []echo.MiddlewareFunc{g.RequireAuth}, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireStaffRoles(t *testing.T) {
	g, db := newGate(t)

	cases := []struct {
		role string
		want int
	}{
		{models.RoleMember, http.StatusForbidden},
		{models.RoleCoach, http.StatusOK},
		{models.RoleAdmin, http.StatusOK},
	}

	for _, tc := range cases {
		user := models.User{Email: tc.role + "@x.com", PasswordHash: "x", Salt: "x",
			FirstName: "Anna", LastName: "Smith", Role: tc.role}
		require.NoError(t, db.Create(&user).Error)

		tok, err := tokens.SignAccess(user.ID, user.Email, testSecret, time.Now().Add(time.Minute))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
		rec := serve(g, []echo.MiddlewareFunc{g.RequireAuth, g.RequireStaff}, req)
		require.Equal(t, tc.want, rec.Code, "role %s", tc.role)
	}
}

func TestRequireAdminExcludesCoach(t *testing.T) {
	g, db := newGate(t)

	user := models.User{Email: "coach@x.com", PasswordHash: "x", Salt: "x",
		FirstName: "Anna", LastName: "Smith", Role: models.RoleCoach}
	require.NoError(t, db.Create(&user).Error)

	tok, err := tokens.SignAccess(user.ID, user.Email, testSecret, time.Now().Add(time.Minute))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	rec := serve(g, []echo.MiddlewareFunc{g.RequireAuth, g.RequireAdmin}, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUnknownSubjectDenied(t *testing.T) {
	g, _ := newGate(t)

	tok, err := tokens.SignAccess(42, "ghost@x.com", testSecret, time.Now().Add(time.Minute))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	rec := serve(g, []echo.MiddlewareFunc{g.RequireAuth, g.RequireStaff}, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
