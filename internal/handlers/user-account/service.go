// internal/handlers/user-account/service.go
package useraccount

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"shop-assistant/internal/common/auth"
	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/common/validation"
	"shop-assistant/internal/models"
)

const (
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid credentials"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type TokenIssuer interface {
	GenerateToken(ctx context.Context, userID, email, role string) (string, error)
}

// Indexer mirrors new accounts into a search backend.
type Indexer interface {
	IndexRecord(ctx context.Context, id string, doc models.Record) error
}

type ServiceDependencies struct {
	Repository UserRepository
	Tokens     TokenIssuer
	Indexer    Indexer
	Logger     logger.Logger
}

type Service struct {
	config  *Config
	repo    UserRepository
	tokens  TokenIssuer
	indexer Indexer
	logger  logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:  config,
		repo:    deps.Repository,
		tokens:  deps.Tokens,
		indexer: deps.Indexer,
		logger:  deps.Logger,
	}
}

func (s *Service) Register(ctx context.Context, input *RegisterInput) (*Output, error) {
	input.Email = normalizeEmail(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	if err := validateRegistration(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByEmail(ctx, input.Email)
	switch {
	case err == nil && existing != nil:
		return nil, apperrors.NewDuplicateError(msgUserExists)
	case err != nil && !errors.Is(err, ErrUserNotFound):
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &models.User{
		ID:           uuid.NewString(),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: hash,
		PhoneNumber:  input.PhoneNumber,
		Role:         s.config.DefaultRole,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, apperrors.NewDuplicateError(msgUserExists)
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.index(ctx, user)

	token, err := s.tokens.GenerateToken(ctx, user.ID, user.Email, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("user registered", map[string]interface{}{"userId": user.ID})
	return newOutput(user, token), nil
}

func (s *Service) Login(ctx context.Context, input *LoginInput) (*Output, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperrors.NewUnauthorizedError(msgInvalidCredentials)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := auth.CheckPassword(user.PasswordHash, input.Password); err != nil {
		s.logger.Warn("login rejected", map[string]interface{}{"userId": user.ID})
		return nil, apperrors.NewUnauthorizedError(msgInvalidCredentials)
	}

	token, err := s.tokens.GenerateToken(ctx, user.ID, user.Email, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return newOutput(user, token), nil
}

// index failures are logged; the account row is the source of truth.
func (s *Service) index(ctx context.Context, u *models.User) {
	if s.indexer == nil {
		return
	}
	doc := models.Record{
		"id":          u.ID,
		"firstName":   u.FirstName,
		"lastName":    u.LastName,
		"email":       u.Email,
		"phoneNumber": u.PhoneNumber,
		"totalSpent":  u.TotalSpent,
		"role":        u.Role,
		"createdAt":   u.CreatedAt,
	}
	if err := s.indexer.IndexRecord(ctx, u.ID, doc); err != nil {
		s.logger.Warn("failed to index user", map[string]interface{}{
			"userId": u.ID,
			"error":  err.Error(),
		})
	}
}

func validateRegistration(input *RegisterInput) error {
	doc := map[string]interface{}{
		"firstName": input.FirstName,
		"lastName":  input.LastName,
		"email":     input.Email,
		"password":  input.Password,
	}
	if input.PhoneNumber != "" {
		doc["phoneNumber"] = input.PhoneNumber
	}
	res, err := validation.Registration.ValidateValue(doc)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !res.Valid {
		return apperrors.NewValidationError(res.Error())
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
