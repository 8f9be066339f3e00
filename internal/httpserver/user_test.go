package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironloft/gymapp/internal/models"
)

func TestProfileOmitsCredentialFields(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("a@x.com", "Password1", models.RoleMember)
	tok, _ := env.login("a@x.com", "Password1")

	rec := env.doAuth(http.MethodGet, "/user/me", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "a@x.com", resp["email"])
	require.NotContains(t, resp, "password")
	require.NotContains(t, resp, "password_hash")
	require.NotContains(t, resp, "salt")
}

func TestUserListRequiresStaff(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("member@x.com", "Password1", models.RoleMember)
	env.createUser("admin@x.com", "Password1", models.RoleAdmin)

	memberTok, _ := env.login("member@x.com", "Password1")
	rec := env.doAuth(http.MethodGet, "/user", memberTok, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	adminTok, _ := env.login("admin@x.com", "Password1")
	rec = env.doAuth(http.MethodGet, "/user", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "salt")
}

func TestPromotionHonoredWithoutRelogin(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("member@x.com", "Password1", models.RoleMember)
	tok, _ := env.login("member@x.com", "Password1")

	rec := env.doAuth(http.MethodGet, "/user", tok, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// out-of-band promotion; the same token must pass on the next request
	// because the gate reads the current role from the store
	require.NoError(t, env.db.Model(&models.User{}).
		Where("id = ?", user.ID).Update("role", models.RoleAdmin).Error)

	rec = env.doAuth(http.MethodGet, "/user", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestProfileUpdateAllowList(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("a@x.com", "Password1", models.RoleMember)
	tok, _ := env.login("a@x.com", "Password1")

	rec := env.doAuth(http.MethodPut, "/user/me", tok, map[string]any{
		"first_name": "Maria",
		"last_name":  "Jones",
		"bio":        "lifting since 2020",
		"role":       "admin",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.User
	require.NoError(t, env.db.First(&stored, user.ID).Error)
	require.Equal(t, "Maria", stored.FirstName)
	require.Equal(t, "lifting since 2020", stored.Bio)
	// role is not settable through the profile path
	require.Equal(t, models.RoleMember, stored.Role)
	require.Equal(t, user.PasswordHash, stored.PasswordHash)
}

func TestChangeRolePath(t *testing.T) {
	env := newTestEnv(t)
	member := env.createUser("member@x.com", "Password1", models.RoleMember)
	env.createUser("coach@x.com", "Password1", models.RoleCoach)
	env.createUser("admin@x.com", "Password1", models.RoleAdmin)

	// coaches do not qualify for role changes
	coachTok, _ := env.login("coach@x.com", "Password1")
	rec := env.doAuth(http.MethodPut, fmt.Sprintf("/user/%d/role", member.ID), coachTok,
		map[string]string{"role": "coach"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	adminTok, _ := env.login("admin@x.com", "Password1")
	rec = env.doAuth(http.MethodPut, fmt.Sprintf("/user/%d/role", member.ID), adminTok,
		map[string]string{"role": "coach"})
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.User
	require.NoError(t, env.db.First(&stored, member.ID).Error)
	require.Equal(t, models.RoleCoach, stored.Role)

	rec = env.doAuth(http.MethodPut, fmt.Sprintf("/user/%d/role", member.ID), adminTok,
		map[string]string{"role": "owner"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("a@x.com", "Password1", models.RoleMember)
	tok, _ := env.login("a@x.com", "Password1")

	rec := env.doAuth(http.MethodPut, "/user/me/password", tok, map[string]string{
		"current_password": "WrongPassword1",
		"new_password":     "Password2secure",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.doAuth(http.MethodPut, "/user/me/password", tok, map[string]string{
		"current_password": "Password1",
		"new_password":     "Password2secure",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// the salt is rotated with the hash
	var stored models.User
	require.NoError(t, env.db.First(&stored, user.ID).Error)
	require.NotEqual(t, user.PasswordHash, stored.PasswordHash)
	require.NotEqual(t, user.Salt, stored.Salt)

	env.login("a@x.com", "Password2secure")
}

func TestUserDeleteRequiresStaff(t *testing.T) {
	env := newTestEnv(t)
	member := env.createUser("member@x.com", "Password1", models.RoleMember)
	env.createUser("admin@x.com", "Password1", models.RoleAdmin)

	memberTok, _ := env.login("member@x.com", "Password1")
	rec := env.doAuth(http.MethodDelete, fmt.Sprintf("/user/%d", member.ID), memberTok, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	adminTok, _ := env.login("admin@x.com", "Password1")
	rec = env.doAuth(http.MethodDelete, fmt.Sprintf("/user/%d", member.ID), adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.doAuth(http.MethodDelete, "/user/999", adminTok, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMyClasses(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("a@x.com", "Password1", models.RoleMember)
	tok, _ := env.login("a@x.com", "Password1")

	class := models.Class{
		Date: "2026-09-01", Time: "18:00", TrainerName: "Jordan Lee",
		Capacity: 5, Type: "Boxing", Location: "Main Gym",
	}
	require.NoError(t, env.db.Create(&class).Error)

	rec := env.doAuth(http.MethodPost, fmt.Sprintf("/class/%d/register", class.ID), tok, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.doAuth(http.MethodGet, "/user/me/classes", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.Class `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, class.ID, resp.Data[0].ID)
}

func TestEndToEndScenario(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/register", map[string]string{
		"email":      "a@x.com",
		"password":   "Password1",
		"first_name": "Anna",
		"last_name":  "Smith",
		"role":       "member",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	tok, _ := env.login("a@x.com", "Password1")

	rec = env.doAuth(http.MethodGet, "/user/me", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	require.Equal(t, "a@x.com", profile["email"])
	require.NotContains(t, profile, "password")
	require.NotContains(t, profile, "salt")

	rec = env.doAuth(http.MethodGet, "/user", tok, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
