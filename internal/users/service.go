// Package users is the admin-only user management surface.
package users

import (
	"context"
	"errors"
	"strings"

	"propertytrack/internal/apperr"
	"propertytrack/internal/audit"
	"propertytrack/internal/auth"
	"propertytrack/internal/models"
	"propertytrack/internal/validation"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Service struct {
	db         *gorm.DB
	audit      auth.Recorder
	bcryptCost int
	log        *logrus.Entry
}

func NewService(db *gorm.DB, rec auth.Recorder, bcryptCost int, log *logrus.Entry) *Service {
	return &Service{db: db, audit: rec, bcryptCost: bcryptCost, log: log}
}

type CreateInput struct {
	Email     string          `json:"email" validate:"required,email,max=255"`
	Password  string          `json:"password" validate:"required,min=6,max=72"`
	FirstName string          `json:"firstName" validate:"required,max=100"`
	LastName  string          `json:"lastName" validate:"required,max=100"`
	Phone     string          `json:"phone" validate:"max=50"`
	Role      models.UserRole `json:"role" validate:"required,oneof=admin host employee"`
}

type UpdateInput struct {
	Email     *string          `json:"email" validate:"omitnil,email,max=255"`
	FirstName *string          `json:"firstName" validate:"omitnil,max=100"`
	LastName  *string          `json:"lastName" validate:"omitnil,max=100"`
	Phone     *string          `json:"phone" validate:"omitnil,max=50"`
	Role      *models.UserRole `json:"role" validate:"omitnil,oneof=admin host employee"`
	IsActive  *bool            `json:"isActive"`
	Password  *string          `json:"password" validate:"omitnil,min=6,max=72"`
}

type ListFilter struct {
	Role            string
	IncludeInactive bool
	Search          string
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]models.User, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if !f.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		like := "%" + term + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}

	users := []models.User{}
	if err := q.Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		return nil, apperr.Internal("could not list users", err)
	}
	return users, nil
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (*models.User, error) {
	in.Email = auth.NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := auth.EnsureEmailFree(ctx, s.db, in.Email, 0); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
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
		return nil, auth.SaveError("could not create user", err)
	}

	s.audit.Record(actor.Audit(models.AuditActionCreate, models.EntityUser, user.ID, map[string]any{
		"email": user.Email,
		"role":  user.Role,
	}))
	return user, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("could not load user", err)
	}
	return &user, nil
}

func (s *Service) Update(ctx context.Context, actor auth.Actor, id uint, in UpdateInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	self := user.ID == actor.UserID
	changes := audit.Changes{}

	if in.Email != nil {
		v := auth.NormalizeEmail(*in.Email)
		if v != user.Email {
			if err := auth.EnsureEmailFree(ctx, s.db, v, user.ID); err != nil {
				return nil, err
			}
			changes.Set("email", user.Email, v)
			user.Email = v
		}
	}
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
	if in.Role != nil && *in.Role != user.Role {
		if self {
			return nil, apperr.Conflict("you cannot change your own role")
		}
		changes.Set("role", user.Role, *in.Role)
		user.Role = *in.Role
	}
	if in.IsActive != nil && *in.IsActive != user.IsActive {
		if self && !*in.IsActive {
			return nil, apperr.Conflict("you cannot deactivate your own account")
		}
		changes.Set("isActive", user.IsActive, *in.IsActive)
		user.IsActive = *in.IsActive
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return nil, apperr.Internal("could not update user", err)
		}
		user.PasswordHash = hash
		changes["password"] = "changed"
	}

	if changes.Empty() {
		return user, nil
	}
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, auth.SaveError("could not update user", err)
	}

	s.audit.Record(actor.Audit(models.AuditActionUpdate, models.EntityUser, user.ID, changes.Details()))
	return user, nil
}

// Delete deactivates the user. Users are never removed.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, id uint) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.ID == actor.UserID {
		return apperr.Conflict("you cannot deactivate your own account")
	}
	if !user.IsActive {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(user).Update("is_active", false).Error; err != nil {
		return apperr.Internal("could not deactivate user", err)
	}

	s.audit.Record(actor.Audit(models.AuditActionDeactivate, models.EntityUser, user.ID, map[string]any{
		"email": user.Email,
	}))
	return nil
}
