package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"propertytrack/internal/apperr"
	"propertytrack/internal/audit"
	"propertytrack/internal/models"
	"propertytrack/internal/validation"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Recorder is the audit sink used by services.
type Recorder interface {
	Record(e audit.Entry)
}

type Service struct {
	db         *gorm.DB
	tokens     *TokenIssuer
	audit      Recorder
	bcryptCost int
	log        *logrus.Entry
}

func NewService(db *gorm.DB, tokens *TokenIssuer, rec Recorder, bcryptCost int, log *logrus.Entry) *Service {
	return &Service{db: db, tokens: tokens, audit: rec, bcryptCost: bcryptCost, log: log}
}

type RegisterInput struct {
	Email     string          `json:"email" validate:"required,email,max=255"`
	Password  string          `json:"password" validate:"required,min=6,max=72"`
	FirstName string          `json:"firstName" validate:"required,max=100"`
	LastName  string          `json:"lastName" validate:"required,max=100"`
	Phone     string          `json:"phone" validate:"max=50"`
	Role      models.UserRole `json:"role" validate:"omitempty,oneof=host employee"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ProfileInput struct {
	FirstName       *string `json:"firstName" validate:"omitnil,max=100"`
	LastName        *string `json:"lastName" validate:"omitnil,max=100"`
	Phone           *string `json:"phone" validate:"omitnil,max=50"`
	CurrentPassword *string `json:"currentPassword"`
	NewPassword     *string `json:"newPassword" validate:"omitnil,min=6,max=72"`
}

// Session is returned by register, login and refresh.
type Session struct {
	User *models.User `json:"user,omitempty"`
	TokenPair
}

func (s *Service) Register(ctx context.Context, origin Actor, in RegisterInput) (*Session, error) {
	in.Email = NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleHost
	}

	if err := EnsureEmailFree(ctx, s.db, in.Email, 0); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperr.Internal("could not create user", err)
	}

	user := &models.User{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         in.Role,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, SaveError("could not create user", err)
	}

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperr.Internal("could not issue tokens", err)
	}

	origin.UserID = user.ID
	s.audit.Record(origin.Audit(models.AuditActionRegister, models.EntityUser, user.ID, map[string]any{
		"email": user.Email,
		"role":  user.Role,
	}))

	return &Session{User: user, TokenPair: pair}, nil
}

func (s *Service) Login(ctx context.Context, origin Actor, in LoginInput) (*Session, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(in.Email)).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Internal("could not log in", err)
		}
		return nil, apperr.Unauthenticated(ErrInvalidCredentials.Error())
	}
	if !user.IsActive || !CheckPassword(in.Password, user.PasswordHash) {
		return nil, apperr.Unauthenticated(ErrInvalidCredentials.Error())
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).UpdateColumn("last_login_at", now).Error; err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("could not stamp last login")
	} else {
		user.LastLoginAt = &now
	}

	pair, err := s.tokens.Issue(&user)
	if err != nil {
		return nil, apperr.Internal("could not issue tokens", err)
	}

	origin.Identity = Identity{UserID: user.ID, Email: user.Email, Role: user.Role}
	s.audit.Record(origin.Audit(models.AuditActionLogin, models.EntityUser, user.ID, nil))

	return &Session{User: &user, TokenPair: pair}, nil
}

// Refresh mints a new token pair. Every failure reports the same error so
// callers cannot tell an expired token from a tampered one or from a
// deactivated account.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	invalid := apperr.Unauthenticated(ErrInvalidRefreshToken.Error())

	id, err := s.tokens.ParseRefresh(strings.TrimSpace(refreshToken))
	if err != nil {
		return nil, invalid
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.WithError(err).Error("refresh: loading user")
		}
		return nil, invalid
	}
	if !user.IsActive {
		return nil, invalid
	}

	pair, err := s.tokens.Issue(&user)
	if err != nil {
		s.log.WithError(err).Error("refresh: issuing tokens")
		return nil, invalid
	}
	return &Session{TokenPair: pair}, nil
}

func (s *Service) Profile(ctx context.Context, ident Identity) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, ident.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("could not load profile", err)
	}
	return &user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, actor Actor, in ProfileInput) (*models.User, error) {
	user, err := s.Profile(ctx, actor.Identity)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	changes := audit.Changes{}

	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		if v == "" {
			return nil, apperr.Validation("validation failed", apperr.FieldError{Field: "firstName", Message: "cannot be empty"})
		}
		changes.Set("firstName", user.FirstName, v)
		user.FirstName = v
	}
	if in.LastName != nil {
		v := strings.TrimSpace(*in.LastName)
		if v == "" {
			return nil, apperr.Validation("validation failed", apperr.FieldError{Field: "lastName", Message: "cannot be empty"})
		}
		changes.Set("lastName", user.LastName, v)
		user.LastName = v
	}
	if in.Phone != nil {
		v := strings.TrimSpace(*in.Phone)
		changes.Set("phone", user.Phone, v)
		user.Phone = v
	}
	if in.NewPassword != nil {
		if in.CurrentPassword == nil || !CheckPassword(*in.CurrentPassword, user.PasswordHash) {
			return nil, apperr.Validation("current password is incorrect",
				apperr.FieldError{Field: "currentPassword", Message: "is incorrect"})
		}
		hash, err := HashPassword(*in.NewPassword, s.bcryptCost)
		if err != nil {
			return nil, apperr.Internal("could not update profile", err)
		}
		user.PasswordHash = hash
		changes["password"] = "changed"
	}

	if changes.Empty() {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, SaveError("could not update profile", err)
	}

	s.audit.Record(actor.Audit(models.AuditActionUpdate, models.EntityUser, user.ID, changes.Details()))
	return user, nil
}

// EnsureEmailFree reports a validation error if another user (other than
// exceptID) already has email.
func EnsureEmailFree(ctx context.Context, db *gorm.DB, email string, exceptID uint) error {
	var count int64
	q := db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return apperr.Internal("could not check email", err)
	}
	if count > 0 {
		return emailTaken()
	}
	return nil
}

// SaveError maps a failed user insert or update. A unique-index hit means
// another request took the email after EnsureEmailFree ran.
func SaveError(msg string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return emailTaken()
	}
	return apperr.Internal(msg, err)
}

func emailTaken() error {
	return apperr.Validation("email already registered",
		apperr.FieldError{Field: "email", Message: "is already registered"})
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
