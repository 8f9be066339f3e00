package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ironloft/gymapp/internal/events"
	"github.com/ironloft/gymapp/internal/hash"
	"github.com/ironloft/gymapp/internal/logging"
	"github.com/ironloft/gymapp/internal/models"
	"github.com/ironloft/gymapp/internal/repo"
	"github.com/ironloft/gymapp/internal/tokens"
	"github.com/ironloft/gymapp/internal/transport"
)

var ErrValidation = errors.New("validation")

// decoy credentials keep the unknown-user login path as expensive as the
// wrong-password path, so the two failures cannot be told apart by timing.
var (
	decoySalt = strings.Repeat("00", 16)
	decoyHash = hash.Password("decoy-password", decoySalt)
)

type AuthService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
	Producer      *events.Producer
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	User         *models.User
}

func validateRegister(req *transport.RegisterRequest) error {
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return fmt.Errorf("%w: email must be a valid address", ErrValidation)
	}
	if len(req.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if l := len(req.FirstName); l < 4 || l > 40 {
		return fmt.Errorf("%w: first_name must be 4-40 characters", ErrValidation)
	}
	if l := len(req.LastName); l < 4 || l > 40 {
		return fmt.Errorf("%w: last_name must be 4-40 characters", ErrValidation)
	}
	if req.Role != "" && !models.ValidRole(req.Role) {
		return fmt.Errorf("%w: role must be one of member, coach, admin", ErrValidation)
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if err := validateRegister(&req); err != nil {
		return nil, err
	}

	salt, err := hash.NewSalt()
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot generate salt", "error", err)
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = models.RoleMember
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: hash.Password(req.Password, salt),
		Salt:         salt,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Address:      req.Address,
		Role:         role,
	}

	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			l.Warn("register_error", "status", 409, "reason", "email already registered")
			return nil, err
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	s.publish(ctx, "user_events", fmt.Sprint(user.ID), map[string]interface{}{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	return &user, nil
}

// Authenticate resolves email+password to a user. Unknown email and wrong
// password both come back as ErrInvalidCredentials; the internal log keeps
// the two apart, the caller-visible result does not.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.authenticate")

	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hash.Verify(password, decoyHash, decoySalt)
			l.Warn("login_failed", "reason", "unknown email")
			return nil, repo.ErrInvalidCredentials
		}
		l.Error("login_failed", "reason", "store error", "error", err)
		return nil, err
	}

	if !hash.Verify(password, user.PasswordHash, user.Salt) {
		l.Warn("login_failed", "reason", "password mismatch", "userID", user.ID)
		return nil, repo.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	res, err := s.issue(ctx, user)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	s.publish(ctx, "user_events", fmt.Sprint(user.ID), map[string]interface{}{
		"type":   "user_logged_in",
		"userID": user.ID,
		"email":  user.Email,
	})

	return res, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*LoginResult, error) {
	accessExp := time.Now().Add(tokens.AccessTTL)
	accessToken, err := tokens.SignAccess(user.ID, user.Email, s.JWTSecret, accessExp)
	if err != nil {
		return nil, err
	}

	refreshExp := time.Now().Add(tokens.RefreshTTL)
	refreshToken, err := tokens.SignRefresh(user.ID, s.RefreshSecret, refreshExp)
	if err != nil {
		return nil, err
	}

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SaveRefresh(ctx, &models.RefreshToken{
		Token:     tokens.Sha256Hex(refreshToken),
		JTI:       claims.ID,
		UserID:    user.ID,
		ExpiresAt: refreshExp.Unix(),
	}); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         user,
	}, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil || claims == nil {
		return nil, repo.ErrInvalidCredentials
	}

	userID, err := tokens.SubjectID(claims.Subject)
	if err != nil {
		return nil, repo.ErrInvalidCredentials
	}
	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		return nil, repo.ErrInvalidCredentials
	}

	accessExp := time.Now().Add(tokens.AccessTTL)
	accessToken, err := tokens.SignAccess(user.ID, user.Email, s.JWTSecret, accessExp)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}

	refreshExp := time.Now().Add(tokens.RefreshTTL)
	newRefresh, err := tokens.SignRefresh(user.ID, s.RefreshSecret, refreshExp)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}
	newClaims, err := tokens.RefreshClaimsFromToken(newRefresh, s.RefreshSecret)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.RotateRefresh(ctx, claims.ID, &models.RefreshToken{
		Token:     tokens.Sha256Hex(newRefresh),
		JTI:       newClaims.ID,
		UserID:    user.ID,
		ExpiresAt: refreshExp.Unix(),
	}); err != nil {
		if errors.Is(err, repo.ErrTokenRevoked) || errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("refresh_failed", "reason", "token expired or revoked")
			return nil, repo.ErrInvalidCredentials
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         user,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.Repo.RevokeRefreshByHash(ctx, tokens.Sha256Hex(refreshToken))
}

func (s *AuthService) publish(ctx context.Context, topic, key string, event map[string]interface{}) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", topic, "error", err)
	}
}
