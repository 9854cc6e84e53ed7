package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/pkg/apperr"
	"github.com/shashiranjanraj/souq/pkg/auth"
	"github.com/shashiranjanraj/souq/pkg/database"
	"github.com/shashiranjanraj/souq/pkg/logger"
)

const (
	VerificationTokenTTL = 24 * time.Hour
	ResetTokenTTL        = 2 * time.Hour
)

// Generic messages. They deliberately do not reveal whether an account
// exists or which part of a credential was wrong.
const (
	MsgInvalidCredentials  = "Invalid credentials"
	MsgInvalidVerifyToken  = "Invalid or expired verification token"
	MsgInvalidResetToken   = "Invalid or expired reset token"
	MsgResetLinkSent       = "If the email exists, a password reset link has been sent"
	MsgVerificationResent  = "If the account exists and is not verified, a verification email has been sent"
	MsgEmailNotVerified    = "Please verify your email before logging in"
	MsgRegistrationSuccess = "Registration successful. Please check your email to verify your account."
)

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

type AuthService struct {
	db     *gorm.DB
	users  *repositories.UserRepository
	tokens *auth.Issuer
	notify Notifier
	now    func() time.Time
}

func NewAuthService(db *gorm.DB, tokens *auth.Issuer, notify Notifier) *AuthService {
	return &AuthService{
		db:     db,
		users:  repositories.NewUserRepository(db),
		tokens: tokens,
		notify: notify,
		now:    now,
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified customer and mails a 24h verification
// token. The unique indexes on email and phone back up the pre-checks when
// two registrations race.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := NormalizeEmail(in.Email)
	phone := strings.TrimSpace(in.Phone)

	taken, err := s.users.EmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.BadRequest("Email already registered")
	}
	taken, err = s.users.PhoneTaken(ctx, phone, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.BadRequest("Phone number already registered")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	token, err := auth.RandomToken()
	if err != nil {
		return nil, err
	}
	expires := s.now().Add(VerificationTokenTTL)

	u := &models.User{
		Name:              strings.TrimSpace(in.Name),
		Email:             email,
		Phone:             phone,
		HashedPassword:    hash,
		EmailToken:        &token,
		EmailTokenExpires: &expires,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.BadRequest("Email or phone number already registered")
		}
		return nil, err
	}

	logger.WithCtx(ctx).Info("user registered", "user_id", u.ID)
	if s.notify != nil {
		s.notify.SendVerification(ctx, u, token)
	}
	return u, nil
}

// Login checks credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	u, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return "", nil, apperr.Unauthorized(MsgInvalidCredentials)
	}
	if err != nil {
		return "", nil, err
	}
	if !auth.CheckPassword(u.HashedPassword, password) {
		return "", nil, apperr.Unauthorized(MsgInvalidCredentials)
	}
	if !u.EmailVerified {
		return "", nil, apperr.Forbidden(MsgEmailNotVerified)
	}

	token, err := s.tokens.Issue(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// VerifyEmail consumes a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.BadRequest(MsgInvalidVerifyToken)
	}
	ok, err := s.users.ConsumeEmailToken(ctx, token, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return apperr.BadRequest(MsgInvalidVerifyToken)
	}
	return nil
}

// ResendVerification issues a fresh verification token to an unverified
// account. The caller always gets the same answer.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if u.EmailVerified {
		return nil
	}

	token, err := auth.RandomToken()
	if err != nil {
		return err
	}
	ok, err := s.users.SetEmailToken(ctx, u.ID, token, s.now().Add(VerificationTokenTTL))
	if err != nil || !ok {
		return err
	}
	if s.notify != nil {
		s.notify.SendVerification(ctx, u, token)
	}
	return nil
}

// ForgotPassword issues a 2h reset token when the account exists. The
// caller always gets the same answer.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := auth.RandomToken()
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, u.ID, token, s.now().Add(ResetTokenTTL)); err != nil {
		return err
	}
	if s.notify != nil {
		s.notify.SendPasswordReset(ctx, u, token)
	}
	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	fields := map[string]string{}
	if token == "" {
		fields["token"] = "The token field is required."
	}
	if password == "" {
		fields["password"] = "The password field is required."
	}
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	ok, err := s.users.ConsumeResetToken(ctx, token, hash, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return apperr.BadRequest(MsgInvalidResetToken)
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	return u, nil
}

// UpdateProfile changes name and phone. The phone must stay unique.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, name, phone string) (*models.User, error) {
	phone = strings.TrimSpace(phone)
	err := database.InTx(ctx, s.db, func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		taken, err := users.PhoneTaken(ctx, phone, userID)
		if err != nil {
			return err
		}
		if taken {
			return apperr.BadRequest("Phone number already registered")
		}
		return users.UpdateProfile(ctx, userID, strings.TrimSpace(name), phone)
	})
	if database.IsUniqueViolation(err) {
		return nil, apperr.BadRequest("Phone number already registered")
	}
	if err != nil {
		return nil, err
	}
	return s.Me(ctx, userID)
}

// ChangePassword requires the current password.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.HashedPassword, current) {
		return apperr.BadRequest("Current password is incorrect")
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}
