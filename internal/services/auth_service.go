package services

import (
	"crypto/subtle"
	"strings"
	"time"

	"bif_backend/internal/auth"
	"bif_backend/internal/config"
	"bif_backend/internal/logger"
	"bif_backend/internal/services/dto"
	"bif_backend/pkg/apperrors"
)

// AuthSettings - секреты и срок жизни токенов
type AuthSettings struct {
	JWTSecret         string
	JWTTTL            time.Duration
	AdminEmail        string
	AdminPasswordHash string
	FormTokenSecret   string
	FormTokenTTL      time.Duration
}

func AuthSettingsFromConfig(cfg *config.Config) AuthSettings {
	return AuthSettings{
		JWTSecret:         cfg.Auth.JWTSecret,
		JWTTTL:            cfg.Auth.JWTTTL,
		AdminEmail:        cfg.Auth.AdminEmail,
		AdminPasswordHash: cfg.Auth.AdminPasswordHash,
		FormTokenSecret:   cfg.Auth.FormTokenSecret,
		FormTokenTTL:      cfg.Auth.FormTokenTTL,
	}
}

type AuthService interface {
	AdminLogin(req *dto.AdminLoginRequest) (*dto.AdminLoginResponse, error)
	ValidateAdminToken(token string) (*auth.Claims, error)

	// Токен формы заменяет nonce CMS; без секрета проверка выключена
	FormTokenRequired() bool
	IssueFormToken(formID uint64) (*dto.FormTokenResponse, error)
	ValidateFormToken(token string, formID uint64) error
}

type AuthServiceImpl struct {
	settings AuthSettings
	forms    FormService
}

func NewAuthService(settings AuthSettings, forms FormService) AuthService {
	return &AuthServiceImpl{settings: settings, forms: forms}
}

// AdminLogin - единственный админ из конфигурации, пароль сверяется по bcrypt-хэшу
func (s *AuthServiceImpl) AdminLogin(req *dto.AdminLoginRequest) (*dto.AdminLoginResponse, error) {
	if s.settings.JWTSecret == "" || s.settings.AdminEmail == "" || s.settings.AdminPasswordHash == "" {
		logger.Warn("Admin login attempted but admin credentials are not configured")
		return nil, apperrors.ErrInvalidAdminCredentials
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(strings.ToLower(s.settings.AdminEmail))) == 1
	passwordOK := auth.CheckPasswordHash(req.Password, s.settings.AdminPasswordHash)
	if !emailOK || !passwordOK {
		logger.Warn("Failed admin login", "email", email)
		return nil, apperrors.ErrInvalidAdminCredentials
	}

	token, expiresAt, err := auth.GenerateToken(s.settings.JWTSecret, email, auth.RoleAdmin, s.settings.JWTTTL)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.Info("Admin logged in", "email", email)
	return &dto.AdminLoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *AuthServiceImpl) ValidateAdminToken(token string) (*auth.Claims, error) {
	if s.settings.JWTSecret == "" {
		return nil, apperrors.NewUnauthorizedError("admin access is not configured")
	}
	claims, err := auth.ParseToken(s.settings.JWTSecret, token)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid or expired token")
	}
	if claims.Role != auth.RoleAdmin {
		return nil, apperrors.NewForbiddenError("admin role required")
	}
	return claims, nil
}

func (s *AuthServiceImpl) FormTokenRequired() bool {
	return s.settings.FormTokenSecret != ""
}

func (s *AuthServiceImpl) IssueFormToken(formID uint64) (*dto.FormTokenResponse, error) {
	if _, err := s.forms.GetForm(formID); err != nil {
		return nil, err
	}
	if !s.FormTokenRequired() {
		return &dto.FormTokenResponse{}, nil
	}

	token, expiresAt, err := auth.GenerateFormToken(s.settings.FormTokenSecret, formID, s.settings.FormTokenTTL)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.FormTokenResponse{Token: token, ExpiresAt: expiresAt.Unix()}, nil
}

func (s *AuthServiceImpl) ValidateFormToken(token string, formID uint64) error {
	if !s.FormTokenRequired() {
		return nil
	}
	if token == "" {
		return apperrors.NewForbiddenError("Invalid form token")
	}
	if _, err := auth.ParseFormToken(s.settings.FormTokenSecret, token, formID); err != nil {
		return apperrors.NewForbiddenError("Invalid form token")
	}
	return nil
}
