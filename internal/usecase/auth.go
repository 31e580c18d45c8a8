package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/xavierca1/clientpulse/internal/entity"
	"github.com/xavierca1/clientpulse/internal/logging"
)

type AuthUseCase struct {
	Users  entity.UserRepositoryInterface
	Tokens TokenIssuer
	Logger logging.Logger
	Now    Clock
}

func NewAuthUseCase(users entity.UserRepositoryInterface, tokens TokenIssuer, logger logging.Logger) *AuthUseCase {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &AuthUseCase{Users: users, Tokens: tokens, Logger: logger, Now: time.Now}
}

// Register creates a user with its own tenant until it joins a workspace.
func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*AuthOutput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if errs := ValidateRegisterInput(input); len(errs) > 0 {
		return nil, validationFailure(errs)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, &TechnicalError{Code: "HASH_ERROR", Message: "failed to hash password", Err: err}
	}

	id := uuid.NewString()
	user := &entity.User{
		ID:           id,
		TenantID:     id,
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		CreatedAt:    uc.Now().UTC(),
	}
	if err := uc.Users.Create(ctx, user); err != nil {
		if errors.Is(err, entity.ErrEmailAlreadyExists) {
			return nil, &DomainError{Code: CodeConflict, Message: entity.ErrEmailAlreadyExists.Error()}
		}
		return nil, &TechnicalError{Code: CodeDatabase, Message: "failed to create user", Err: err}
	}

	uc.Logger.Info("user registered", "user_id", user.ID)
	return uc.issue(user)
}

func (uc *AuthUseCase) Login(ctx context.Context, input LoginInput) (*AuthOutput, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := uc.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, &TechnicalError{Code: CodeDatabase, Message: "failed to load user", Err: err}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return uc.issue(user)
}

func (uc *AuthUseCase) issue(user *entity.User) (*AuthOutput, error) {
	token, expiresAt, err := uc.Tokens.Issue(user)
	if err != nil {
		return nil, &TechnicalError{Code: "TOKEN_ERROR", Message: "failed to issue token", Err: err}
	}
	return &AuthOutput{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}
