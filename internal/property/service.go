package property

import (
	"context"
	"strings"

	"propertytrack/internal/apperr"
	"propertytrack/internal/audit"
	"propertytrack/internal/auth"
	"propertytrack/internal/authz"
	"propertytrack/internal/models"
	"propertytrack/internal/validation"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	policy *authz.Policy
	audit  auth.Recorder
	log    *logrus.Entry
}

func NewService(db *gorm.DB, policy *authz.Policy, rec auth.Recorder, log *logrus.Entry) *Service {
	return &Service{db: db, policy: policy, audit: rec, log: log}
}

type AddressInput struct {
	Street  string `json:"street" validate:"max=255"`
	City    string `json:"city" validate:"max=100"`
	State   string `json:"state" validate:"max=100"`
	ZipCode string `json:"zipCode" validate:"max=20"`
	Country string `json:"country" validate:"max=100"`
}

type AddressPatch struct {
	Street  *string `json:"street" validate:"omitnil,max=255"`
	City    *string `json:"city" validate:"omitnil,max=100"`
	State   *string `json:"state" validate:"omitnil,max=100"`
	ZipCode *string `json:"zipCode" validate:"omitnil,max=20"`
	Country *string `json:"country" validate:"omitnil,max=100"`
}

type CreateInput struct {
	Name         string              `json:"name" validate:"required,max=200"`
	Description  string              `json:"description" validate:"max=1000"`
	PropertyType models.PropertyType `json:"propertyType" validate:"omitempty,oneof=apartment house condo villa cabin other"`
	Address      AddressInput        `json:"address"`
	// OwnerID is honoured for admins only; everyone else owns what they create.
	OwnerID *uint `json:"ownerId"`
}

type UpdateInput struct {
	Name         *string              `json:"name" validate:"omitnil,max=200"`
	Description  *string              `json:"description" validate:"omitnil,max=1000"`
	PropertyType *models.PropertyType `json:"propertyType" validate:"omitnil,oneof=apartment house condo villa cabin other"`
	Address      *AddressPatch        `json:"address"`
	IsActive     *bool                `json:"isActive"`
	OwnerID      *uint                `json:"ownerId"`
}

type ListFilter struct {
	OwnerID         uint
	IncludeInactive bool
}

func (s *Service) List(ctx context.Context, ident auth.Identity, f ListFilter) ([]models.Property, error) {
	q := s.db.WithContext(ctx).Model(&models.Property{})
	if ident.IsAdmin() {
		if f.OwnerID > 0 {
			q = q.Where("owner_id = ?", f.OwnerID)
		}
	} else {
		q = q.Where("owner_id = ?", ident.UserID)
	}
	if !f.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}

	props := []models.Property{}
	if err := q.Order("created_at DESC, id DESC").Find(&props).Error; err != nil {
		return nil, apperr.Internal("could not list properties", err)
	}
	return props, nil
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (*models.Property, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	ownerID := actor.UserID
	if in.OwnerID != nil && *in.OwnerID != actor.UserID {
		if !actor.IsAdmin() {
			return nil, apperr.Forbidden("only admins may create properties for another user")
		}
		if err := s.ensureOwner(ctx, *in.OwnerID); err != nil {
			return nil, err
		}
		ownerID = *in.OwnerID
	}
	if in.PropertyType == "" {
		in.PropertyType = models.PropertyOther
	}

	prop := &models.Property{
		OwnerID:      ownerID,
		Name:         in.Name,
		Description:  strings.TrimSpace(in.Description),
		PropertyType: in.PropertyType,
		Address: models.Address{
			Street:  strings.TrimSpace(in.Address.Street),
			City:    strings.TrimSpace(in.Address.City),
			State:   strings.TrimSpace(in.Address.State),
			ZipCode: strings.TrimSpace(in.Address.ZipCode),
			Country: strings.TrimSpace(in.Address.Country),
		},
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(prop).Error; err != nil {
		return nil, apperr.Internal("could not create property", err)
	}

	s.audit.Record(actor.Audit(models.AuditActionCreate, models.EntityProperty, prop.ID, map[string]any{
		"name":    prop.Name,
		"ownerId": prop.OwnerID,
	}))
	return prop, nil
}

func (s *Service) Get(ctx context.Context, ident auth.Identity, id uint) (*models.Property, error) {
	return s.policy.Property(ctx, ident, id)
}

func (s *Service) Update(ctx context.Context, actor auth.Actor, id uint, in UpdateInput) (*models.Property, error) {
	prop, err := s.policy.Property(ctx, actor.Identity, id)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	changes := audit.Changes{}

	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if v == "" {
			return nil, apperr.Validation("validation failed", apperr.FieldError{Field: "name", Message: "cannot be empty"})
		}
		changes.Set("name", prop.Name, v)
		prop.Name = v
	}
	if in.Description != nil {
		v := strings.TrimSpace(*in.Description)
		changes.Set("description", prop.Description, v)
		prop.Description = v
	}
	if in.PropertyType != nil {
		changes.Set("propertyType", prop.PropertyType, *in.PropertyType)
		prop.PropertyType = *in.PropertyType
	}
	if in.Address != nil {
		applyAddress(&prop.Address, in.Address, changes)
	}
	if in.IsActive != nil {
		changes.Set("isActive", prop.IsActive, *in.IsActive)
		prop.IsActive = *in.IsActive
	}

	ownerChanged := false
	if in.OwnerID != nil && *in.OwnerID != prop.OwnerID {
		if !actor.IsAdmin() {
			return nil, apperr.Forbidden("only admins may transfer a property")
		}
		if err := s.ensureOwner(ctx, *in.OwnerID); err != nil {
			return nil, err
		}
		changes.Set("ownerId", prop.OwnerID, *in.OwnerID)
		prop.OwnerID = *in.OwnerID
		ownerChanged = true
	}

	if changes.Empty() {
		return prop, nil
	}

	if err := s.db.WithContext(ctx).Save(prop).Error; err != nil {
		return nil, apperr.Internal("could not update property", err)
	}
	if ownerChanged || (in.IsActive != nil && !*in.IsActive) {
		s.policy.InvalidateOwner(prop.ID)
	}

	s.audit.Record(actor.Audit(models.AuditActionUpdate, models.EntityProperty, prop.ID, changes.Details()))
	return prop, nil
}

// Delete deactivates the property. Rooms and items are left untouched.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, id uint) error {
	prop, err := s.policy.Property(ctx, actor.Identity, id)
	if err != nil {
		return err
	}
	if !prop.IsActive {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(prop).Update("is_active", false).Error; err != nil {
		return apperr.Internal("could not delete property", err)
	}
	s.policy.InvalidateOwner(prop.ID)

	s.audit.Record(actor.Audit(models.AuditActionDeactivate, models.EntityProperty, prop.ID, map[string]any{
		"name": prop.Name,
	}))
	return nil
}

func (s *Service) ensureOwner(ctx context.Context, userID uint) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	if err != nil {
		return apperr.Internal("could not check owner", err)
	}
	if count == 0 {
		return apperr.Validation("validation failed",
			apperr.FieldError{Field: "ownerId", Message: "must reference an active user"})
	}
	return nil
}

func applyAddress(addr *models.Address, p *AddressPatch, changes audit.Changes) {
	set := func(field string, dst *string, v *string) {
		if v == nil {
			return
		}
		nv := strings.TrimSpace(*v)
		changes.Set("address."+field, *dst, nv)
		*dst = nv
	}
	set("street", &addr.Street, p.Street)
	set("city", &addr.City, p.City)
	set("state", &addr.State, p.State)
	set("zipCode", &addr.ZipCode, p.ZipCode)
	set("country", &addr.Country, p.Country)
}
