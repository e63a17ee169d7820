package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finlearn/internal/logger"
	"finlearn/internal/models"
	"finlearn/internal/repository"
	"finlearn/internal/security"
	"finlearn/internal/validation"
)

const (
	verifyEmailTTL   = 24 * time.Hour
	passwordResetTTL = 1 * time.Hour
)

// Mailer sends the account emails the auth flows depend on
type Mailer interface {
	SendVerificationEmail(ctx context.Context, toEmail, toName, token string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, toName, token string) error
}

// AuthService handles authentication business logic
type AuthService struct {
	users  *repository.UserRepository
	tokens *repository.TokenRepository
	jwt    *security.TokenManager
	mailer Mailer
	log    *logger.Logger
	now    func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(users *repository.UserRepository, tokens *repository.TokenRepository, jwt *security.TokenManager, mailer Mailer, log *logger.Logger) *AuthService {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthService{
		users:  users,
		tokens: tokens,
		jwt:    jwt,
		mailer: mailer,
		log:    log.With("service", "AuthService"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SignupRequest is the payload for creating a local account
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the token pair handed to a signed-in user
type Session struct {
	User             *models.User `json:"user"`
	AccessToken      string       `json:"accessToken"`
	AccessExpiresAt  time.Time    `json:"accessExpiresAt"`
	RefreshToken     string       `json:"refreshToken"`
	RefreshExpiresAt time.Time    `json:"refreshExpiresAt"`
}

// Signup creates an unverified account and mails a verification link
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	errs := validation.Errors{}
	for _, err := range []error{
		validation.ValidateName(req.Username),
		validation.ValidateEmail(req.Email),
		validation.ValidatePassword(req.Password),
	} {
		if ve, ok := validation.AsErrors(err); ok {
			for field, msgs := range ve {
				for _, m := range msgs {
					errs.Add(field, m)
				}
			}
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user signed up", "user_id", user.ID)

	if err := s.sendVerification(ctx, user); err != nil {
		s.log.Warn("failed to send verification email", "user_id", user.ID, "error", err)
	}
	return user, nil
}

func (s *AuthService) sendVerification(ctx context.Context, user *models.User) error {
	token := &models.AuthToken{
		Token:     security.GenerateOpaqueToken(),
		UserID:    user.ID,
		Purpose:   models.TokenPurposeVerifyEmail,
		ExpiresAt: s.now().Add(verifyEmailTTL),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return err
	}
	if s.mailer == nil {
		return nil
	}
	return s.mailer.SendVerificationEmail(ctx, user.Email, user.Username, token.Token)
}

// ResendVerification mails a fresh verification link to an unverified account.
// Unknown or already verified addresses succeed silently.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.EmailVerified {
		return nil
	}
	if err := s.sendVerification(ctx, user); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

// Signin checks credentials and issues a session for a verified account
func (s *AuthService) Signin(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	ok, err := security.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("failed to check password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}
	return s.issueSession(user)
}

func (s *AuthService) issueSession(user *models.User) (*Session, error) {
	access, accessExp, err := s.jwt.Issue(user.ID, security.AccessToken)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.jwt.Issue(user.ID, security.RefreshToken)
	if err != nil {
		return nil, err
	}
	return &Session{
		User:             user,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Authenticate resolves an access token to its user id
func (s *AuthService) Authenticate(accessToken string) (string, error) {
	userID, err := s.jwt.Verify(accessToken, security.AccessToken)
	if err != nil {
		return "", ErrInvalidToken
	}
	return userID, nil
}

// Refresh exchanges a valid refresh token for a new session
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	userID, err := s.jwt.Verify(refreshToken, security.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	return s.issueSession(user)
}

// VerifyEmail consumes a verification token and marks the account verified
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	t, err := s.usableToken(ctx, token, models.TokenPurposeVerifyEmail)
	if err != nil {
		return err
	}
	consumed, err := s.tokens.MarkUsed(ctx, t.Token)
	if err != nil {
		return err
	}
	if !consumed {
		return ErrInvalidToken
	}
	if err := s.users.MarkEmailVerified(ctx, t.UserID); err != nil {
		return err
	}
	s.log.Info("email verified", "user_id", t.UserID)
	return nil
}

func (s *AuthService) usableToken(ctx context.Context, token, purpose string) (*models.AuthToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	t, err := s.tokens.Get(ctx, token, purpose)
	if err != nil {
		return nil, err
	}
	if t == nil || !t.IsUsable() {
		return nil, ErrInvalidToken
	}
	return t, nil
}

// RequestPasswordReset mails a reset link. Unknown addresses and OAuth-only
// accounts succeed silently so callers cannot probe which emails exist.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.HasPassword() {
		return nil
	}

	token := &models.AuthToken{
		Token:     security.GenerateOpaqueToken(),
		UserID:    user.ID,
		Purpose:   models.TokenPurposeResetPassword,
		ExpiresAt: s.now().Add(passwordResetTTL),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return err
	}
	if s.mailer != nil {
		if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, user.Username, token.Token); err != nil {
			return fmt.Errorf("failed to send reset email: %w", err)
		}
	}
	s.log.Info("password reset requested", "user_id", user.ID)
	return nil
}

// ValidateResetToken reports whether a reset token can still be used
func (s *AuthService) ValidateResetToken(ctx context.Context, token string) (bool, error) {
	_, err := s.usableToken(ctx, token, models.TokenPurposeResetPassword)
	if errors.Is(err, ErrInvalidToken) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ResetPassword sets a new password using a valid reset token
func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirmPassword string) error {
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}
	if password != confirmPassword {
		return validation.New("confirmPassword", "must match password")
	}

	t, err := s.usableToken(ctx, token, models.TokenPurposeResetPassword)
	if err != nil {
		return err
	}
	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	consumed, err := s.tokens.MarkUsed(ctx, t.Token)
	if err != nil {
		return err
	}
	if !consumed {
		return ErrInvalidToken
	}
	if err := s.users.SetPassword(ctx, t.UserID, passwordHash); err != nil {
		return err
	}
	s.log.Info("password reset", "user_id", t.UserID)
	return nil
}

// OAuthLogin signs in the account linked to provider/subject, linking an
// existing account with the same email or creating a new verified one.
func (s *AuthService) OAuthLogin(ctx context.Context, provider, subject, email, name string) (*Session, error) {
	if provider == "" || subject == "" {
		return nil, errors.New("missing oauth provider information")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.users.GetByOAuth(ctx, provider, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup oauth user: %w", err)
	}
	if user != nil {
		return s.issueSession(user)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		if existing.OAuthProvider != "" && existing.OAuthProvider != provider {
			return nil, ErrEmailTaken
		}
		if err := s.users.LinkOAuthProvider(ctx, existing.ID, provider, subject); err != nil {
			return nil, err
		}
		existing.OAuthProvider = provider
		existing.EmailVerified = true
		s.log.Info("oauth provider linked", "user_id", existing.ID, "provider", provider)
		return s.issueSession(existing)
	}

	name = strings.TrimSpace(name)
	if validation.ValidateName(name) != nil {
		name = strings.Split(email, "@")[0]
	}
	user = &models.User{
		Username:      name,
		Email:         email,
		EmailVerified: true,
		OAuthProvider: provider,
		OAuthSubject:  subject,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("oauth user created", "user_id", user.ID, "provider", provider)
	return s.issueSession(user)
}

// PurgeExpiredTokens removes expired or consumed emailed tokens
func (s *AuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.tokens.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge tokens: %w", err)
	}
	return n, nil
}
