package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Dosada05/gamejam/config"
	"github.com/Dosada05/gamejam/models"
	"github.com/Dosada05/gamejam/repositories"
	"github.com/Dosada05/gamejam/utils"
)

const (
	minPasswordLength = 6
	// bcrypt only accepts up to 72 bytes of input.
	maxPasswordBytes = 72
	resetSecretBytes  = 32
)

type AuthService interface {
	// Register creates an inactive participant and mails an activation link.
	// The result is the same whether or not the address was already taken.
	Register(ctx context.Context, input RegisterInput) error
	InviteUser(ctx context.Context, actor models.Identity, input InviteUserInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	RequestPasswordReset(ctx context.Context, input ForgotPasswordInput) error
	// ResetPassword redeems a reset or activation token. Every token failure
	// is reported as ErrResetTokenInvalid.
	ResetPassword(ctx context.Context, input ResetPasswordInput) (*AuthResult, error)
	Profile(ctx context.Context, actor models.Identity) (*models.User, error)
}

// AuthResult is a user with a freshly issued session token.
type AuthResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

type RegisterInput struct {
	Email       string              `json:"email"`
	Name        string              `json:"name"`
	ProfileRole *models.ProfileRole `json:"profile_role"`
}

func (in *RegisterInput) Validate() error {
	if err := validateEmail(&in.Email); err != nil {
		return err
	}
	in.Name = strings.TrimSpace(in.Name)
	if len(in.Name) > 100 {
		return fmt.Errorf("%w: name must be at most 100 characters", ErrValidationFailed)
	}
	if in.ProfileRole != nil && !in.ProfileRole.Valid() {
		return fmt.Errorf("%w: unknown profile role %q", ErrInvalidRole, *in.ProfileRole)
	}
	return nil
}

type InviteUserInput struct {
	Email       string              `json:"email"`
	Name        string              `json:"name"`
	Role        models.UserRole     `json:"role"`
	ProfileRole *models.ProfileRole `json:"profile_role"`
}

func (in *InviteUserInput) Validate() error {
	reg := RegisterInput{Email: in.Email, Name: in.Name, ProfileRole: in.ProfileRole}
	if err := reg.Validate(); err != nil {
		return err
	}
	in.Email, in.Name = reg.Email, reg.Name
	if in.Role == "" {
		in.Role = models.RoleParticipant
	}
	if !in.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidRole, in.Role)
	}
	return nil
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *LoginInput) Validate() error {
	in.Email = models.NormalizeEmail(in.Email)
	if in.Email == "" {
		return ErrEmailRequired
	}
	if in.Password == "" {
		return fmt.Errorf("%w: password is required", ErrValidationFailed)
	}
	return nil
}

type ForgotPasswordInput struct {
	Email string `json:"email"`
}

func (in *ForgotPasswordInput) Validate() error {
	return validateEmail(&in.Email)
}

type ResetPasswordInput struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (in *ResetPasswordInput) Validate() error {
	in.Token = strings.TrimSpace(in.Token)
	if in.Token == "" {
		return ErrResetTokenInvalid
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if len(in.Password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

func validateEmail(email *string) error {
	*email = models.NormalizeEmail(*email)
	if *email == "" {
		return ErrEmailRequired
	}
	if !utils.IsValidEmail(*email) {
		return ErrEmailInvalid
	}
	return nil
}

type authService struct {
	db        *sql.DB
	userRepo  repositories.UserRepository
	tokenRepo repositories.ResetTokenRepository
	sessions  *SessionManager
	notifier  Notifier
	publicURL string
	tokenTTL  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewAuthService(
	db *sql.DB,
	userRepo repositories.UserRepository,
	tokenRepo repositories.ResetTokenRepository,
	sessions *SessionManager,
	notifier Notifier,
	cfg *config.Config,
	logger *slog.Logger,
) AuthService {
	return &authService{
		db:        db,
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		sessions:  sessions,
		notifier:  notifier,
		publicURL: cfg.PublicURL,
		tokenTTL:  cfg.ResetTokenTTL,
		logger:    loggerOrDefault(logger),
		now:       time.Now,
	}
}

// newResetSecret returns a random secret and the hex sha256 digest that is
// stored in its place.
func newResetSecret() (raw, hash string, err error) {
	b := make([]byte, resetSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("failed to generate reset secret: %w", err)
	}
	raw = hex.EncodeToString(b)
	return raw, hashResetSecret(raw), nil
}

func hashResetSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (s *authService) redemptionLink(raw string) string {
	return s.publicURL + "/reset-password?token=" + url.QueryEscape(raw)
}

// issueToken replaces every token the user holds with a fresh one and
// returns the raw secret.
func (s *authService) issueToken(ctx context.Context, exec repositories.SQLExecutor, userID int) (string, error) {
	raw, hash, err := newResetSecret()
	if err != nil {
		return "", err
	}
	if _, err := s.tokenRepo.DeleteByUserID(ctx, exec, userID); err != nil {
		return "", err
	}
	token := &models.PasswordResetToken{
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(s.tokenTTL),
	}
	if err := s.tokenRepo.Create(ctx, exec, token); err != nil {
		return "", err
	}
	return raw, nil
}

func (s *authService) Register(ctx context.Context, input RegisterInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	user := &models.User{
		Email:       input.Email,
		CanLogin:    false,
		Role:        models.RoleParticipant,
		ProfileRole: input.ProfileRole,
	}
	if input.Name != "" {
		user.Name = &input.Name
	}

	var raw string
	err := withTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			return err
		}
		var err error
		raw, err = s.issueToken(ctx, tx, user.ID)
		return err
	})
	if errors.Is(err, repositories.ErrUserEmailConflict) {
		return s.resendActivation(ctx, input.Email)
	}
	if err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.InfoContext(ctx, "participant registered", slog.Int("user_id", user.ID))
	_ = s.notifier.SendActivation(ctx, user.Email, s.redemptionLink(raw))
	return nil
}

// resendActivation mails a new activation link to a registered address that
// has never been activated. Active accounts get nothing.
func (s *authService) resendActivation(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user.CanLogin {
		return nil
	}
	raw, err := s.issueTokenTx(ctx, user.ID)
	if err != nil {
		return err
	}
	_ = s.notifier.SendActivation(ctx, user.Email, s.redemptionLink(raw))
	return nil
}

func (s *authService) issueTokenTx(ctx context.Context, userID int) (string, error) {
	var raw string
	err := withTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		var err error
		raw, err = s.issueToken(ctx, tx, userID)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to issue reset token: %w", err)
	}
	return raw, nil
}

func (s *authService) InviteUser(ctx context.Context, actor models.Identity, input InviteUserInput) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	user := &models.User{
		Email:       input.Email,
		CanLogin:    false,
		Role:        input.Role,
		ProfileRole: input.ProfileRole,
	}
	if input.Name != "" {
		user.Name = &input.Name
	}

	var raw string
	err := withTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			return err
		}
		var err error
		raw, err = s.issueToken(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("failed to invite user: %w", err)
	}

	s.logger.InfoContext(ctx, "user invited",
		slog.Int("user_id", user.ID), slog.String("role", string(user.Role)), slog.Int("actor_id", actor.UserID))
	_ = s.notifier.SendActivation(ctx, user.Email, s.redemptionLink(raw))
	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if !user.CanLogin || user.PasswordHash == nil || !utils.CheckPasswordHash(input.Password, *user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.startSession(user)
}

func (s *authService) startSession(user *models.User) (*AuthResult, error) {
	user.PasswordHash = nil
	token, expiresAt, err := s.sessions.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, input ForgotPasswordInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	raw, err := s.issueTokenTx(ctx, user.ID)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "password reset requested", slog.Int("user_id", user.ID))
	_ = s.notifier.SendPasswordReset(ctx, user.Email, s.redemptionLink(raw))
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, input ResetPasswordInput) (*AuthResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	passwordHash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	var user *models.User
	err = withTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		token, err := s.tokenRepo.GetByHashForUpdate(ctx, tx, hashResetSecret(input.Token))
		if err != nil {
			if errors.Is(err, repositories.ErrResetTokenNotFound) {
				return ErrResetTokenInvalid
			}
			return err
		}
		if !token.Redeemable(now) {
			return ErrResetTokenInvalid
		}

		if err := s.userRepo.SetCredentials(ctx, tx, token.UserID, passwordHash); err != nil {
			return err
		}
		if err := s.tokenRepo.MarkUsed(ctx, tx, token.ID, now); err != nil {
			if errors.Is(err, repositories.ErrResetTokenNotFound) {
				return ErrResetTokenInvalid
			}
			return err
		}
		if _, err := s.tokenRepo.DeleteUsedByUserID(ctx, tx, token.UserID, token.ID); err != nil {
			return err
		}

		user = token.User
		user.CanLogin = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrResetTokenInvalid) {
			return nil, ErrResetTokenInvalid
		}
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrResetTokenInvalid
		}
		return nil, fmt.Errorf("failed to reset password: %w", err)
	}

	s.logger.InfoContext(ctx, "password reset completed", slog.Int("user_id", user.ID))
	return s.startSession(user)
}

func (s *authService) Profile(ctx context.Context, actor models.Identity) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", actor.UserID, err)
	}
	user.PasswordHash = nil
	return user, nil
}
