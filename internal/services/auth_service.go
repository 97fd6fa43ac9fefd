package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/bustrack/bus-tracking-backend/internal/database"
	"github.com/bustrack/bus-tracking-backend/internal/models"
	"github.com/bustrack/bus-tracking-backend/pkg/jwt"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password,
	// so the two cases are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountInactive indicates a disabled account
	ErrAccountInactive = errors.New("account is inactive")

	// ErrWrongPassword indicates the current password check failed
	ErrWrongPassword = errors.New("current password is incorrect")

	// ErrInvalidRefreshToken covers expired, malformed and revoked-subject
	// refresh tokens alike.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo    *database.UserRepository
	jwtService  TokenIssuer
	bcryptCost  int
	tokenExpiry time.Duration
	log         *logrus.Logger
}

// TokenIssuer issues the access/refresh token pair for a login and
// verifies refresh tokens presented for renewal
type TokenIssuer interface {
	GenerateAccessToken(userID uuid.UUID, email, role string) (string, error)
	GenerateRefreshToken(userID uuid.UUID, email string) (string, error)
	ValidateRefreshToken(tokenString string) (*jwt.Claims, error)
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *database.UserRepository, jwtService TokenIssuer, bcryptCost int, tokenExpiry time.Duration, log *logrus.Logger) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		jwtService:  jwtService,
		bcryptCost:  bcryptCost,
		tokenExpiry: tokenExpiry,
		log:         log,
	}
}

// Login authenticates a user and returns a token pair. The IP and
// User-Agent strings are recorded in the audit log only.
func (s *AuthService) Login(email, password, ipAddress, userAgent string) (*models.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Burn a comparison anyway so the timing matches the
			// wrong-password path.
			bcrypt.CompareHashAndPassword([]byte("$2a$12$invalidinvalidinvalidinvalidinvalidinvalidinvalidinva"), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.auditLogin(user, ipAddress, userAgent, false)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("failed to update last login")
	}

	s.auditLogin(user, ipAddress, userAgent, true)

	return &models.LoginResponse{
		Token:        accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokenExpiry.Seconds()),
		User:         user,
	}, nil
}

// Refresh exchanges a valid refresh token for a fresh token pair. The
// account is re-read so deactivated or deleted users cannot renew.
func (s *AuthService) Refresh(refreshToken string) (*models.LoginResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	newRefreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &models.LoginResponse{
		Token:        accessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    int64(s.tokenExpiry.Seconds()),
		User:         user,
	}, nil
}

// CreateUser creates a new account with a hashed password. A duplicate
// email surfaces as database.ErrDuplicate.
func (s *AuthService) CreateUser(req *models.CreateUserRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         req.Role,
		IsActive:     true,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetUser returns the account for the given user ID
func (s *AuthService) GetUser(userID uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}

// ChangePassword replaces the password for the given user after
// verifying the old one
func (s *AuthService) ChangePassword(userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.userRepo.UpdatePassword(userID, string(hash))
}

func (s *AuthService) auditLogin(user *models.User, ipAddress, rawUserAgent string, success bool) {
	ua := user_agent.New(rawUserAgent)
	browser, version := ua.Browser()

	s.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
		"ip":      ipAddress,
		"os":      ua.OS(),
		"browser": fmt.Sprintf("%s %s", browser, version),
		"mobile":  ua.Mobile(),
		"success": success,
	}).Info("login attempt")
}
