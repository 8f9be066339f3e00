package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ironloft/gymapp/internal/events"
	"github.com/ironloft/gymapp/internal/hash"
	authmw "github.com/ironloft/gymapp/internal/middleware/auth"
	"github.com/ironloft/gymapp/internal/models"
	"github.com/ironloft/gymapp/internal/repo"
	"github.com/ironloft/gymapp/internal/service"
)

var (
	testJWTSecret     = []byte("test-jwt-secret")
	testRefreshSecret = []byte("test-refresh-secret")
)

type testEnv struct {
	t    *testing.T
	e    *echo.Echo
	db   *gorm.DB
	repo *repo.GormRepo
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Class{},
		&models.Attendance{},
	))

	r := &repo.GormRepo{DB: db}
	producer := events.NewProducer(nil)

	authSvc := &service.AuthService{
		Repo:          r,
		JWTSecret:     testJWTSecret,
		RefreshSecret: testRefreshSecret,
		Producer:      producer,
	}

	e := echo.New()
	Register(e, &Deps{
		Auth:    &AuthHTTP{Svc: authSvc},
		Users:   &UserHTTP{Svc: &service.UserService{Repo: r}},
		Classes: &ClassHTTP{Svc: &service.ClassService{Repo: r, Producer: producer}},
		Gate:    authmw.NewGate(r, testJWTSecret),
	})

	return &testEnv{t: t, e: e, db: db, repo: r}
}

func (env *testEnv) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(env.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) doAuth(method, path, token string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(env.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) createUser(email, password, role string) *models.User {
	salt, err := hash.NewSalt()
	require.NoError(env.t, err)
	user := &models.User{
		Email:        email,
		PasswordHash: hash.Password(password, salt),
		Salt:         salt,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
	}
	require.NoError(env.t, env.db.Create(user).Error)
	return user
}

func (env *testEnv) login(email, password string) (access, refresh string) {
	rec := env.do(http.MethodPost, "/login", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(env.t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(env.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	access, _ = resp["access_token"].(string)
	refresh, _ = resp["refresh_token"].(string)
	require.NotEmpty(env.t, access)
	require.NotEmpty(env.t, refresh)
	return access, refresh
}
