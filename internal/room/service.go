package room

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

type CreateInput struct {
	Name        string          `json:"name" validate:"required,max=200"`
	RoomType    models.RoomType `json:"roomType" validate:"omitempty,oneof=bedroom bathroom kitchen living_room dining_room office storage outdoor other"`
	Floor       int             `json:"floor" validate:"gte=-10,lte=200"`
	Description string          `json:"description" validate:"max=1000"`
}

type UpdateInput struct {
	Name        *string          `json:"name" validate:"omitnil,max=200"`
	RoomType    *models.RoomType `json:"roomType" validate:"omitnil,oneof=bedroom bathroom kitchen living_room dining_room office storage outdoor other"`
	Floor       *int             `json:"floor" validate:"omitnil,gte=-10,lte=200"`
	Description *string          `json:"description" validate:"omitnil,max=1000"`
	IsActive    *bool            `json:"isActive"`
}

// DeleteResult tells the caller whether the room was removed or only
// deactivated because it still holds inventory.
type DeleteResult struct {
	Deleted     bool `json:"deleted"`
	Deactivated bool `json:"deactivated"`
}

func (s *Service) List(ctx context.Context, ident auth.Identity, propertyID uint, includeInactive bool) ([]models.Room, error) {
	if _, err := s.policy.Property(ctx, ident, propertyID); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Where("property_id = ?", propertyID)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}

	rooms := []models.Room{}
	if err := q.Order("floor ASC, name ASC").Find(&rooms).Error; err != nil {
		return nil, apperr.Internal("could not list rooms", err)
	}
	return rooms, nil
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, propertyID uint, in CreateInput) (*models.Room, error) {
	prop, err := s.policy.Property(ctx, actor.Identity, propertyID)
	if err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if !prop.IsActive {
		return nil, apperr.Conflict("cannot add rooms to an inactive property")
	}
	if in.RoomType == "" {
		in.RoomType = models.RoomOther
	}

	room := &models.Room{
		PropertyID:  prop.ID,
		Name:        in.Name,
		RoomType:    in.RoomType,
		Floor:       in.Floor,
		Description: strings.TrimSpace(in.Description),
		IsActive:    true,
	}
	if err := s.db.WithContext(ctx).Create(room).Error; err != nil {
		return nil, apperr.Internal("could not create room", err)
	}

	s.audit.Record(actor.Audit(models.AuditActionCreate, models.EntityRoom, room.ID, map[string]any{
		"name":       room.Name,
		"propertyId": room.PropertyID,
	}))
	return room, nil
}

func (s *Service) Get(ctx context.Context, ident auth.Identity, id uint) (*models.Room, error) {
	return s.policy.Room(ctx, ident, id)
}

func (s *Service) Update(ctx context.Context, actor auth.Actor, id uint, in UpdateInput) (*models.Room, error) {
	room, err := s.policy.Room(ctx, actor.Identity, id)
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
		changes.Set("name", room.Name, v)
		room.Name = v
	}
	if in.RoomType != nil {
		changes.Set("roomType", room.RoomType, *in.RoomType)
		room.RoomType = *in.RoomType
	}
	if in.Floor != nil {
		changes.Set("floor", room.Floor, *in.Floor)
		room.Floor = *in.Floor
	}
	if in.Description != nil {
		v := strings.TrimSpace(*in.Description)
		changes.Set("description", room.Description, v)
		room.Description = v
	}
	if in.IsActive != nil {
		changes.Set("isActive", room.IsActive, *in.IsActive)
		room.IsActive = *in.IsActive
	}

	if changes.Empty() {
		return room, nil
	}
	if err := s.db.WithContext(ctx).Save(room).Error; err != nil {
		return nil, apperr.Internal("could not update room", err)
	}

	s.audit.Record(actor.Audit(models.AuditActionUpdate, models.EntityRoom, room.ID, changes.Details()))
	return room, nil
}

// Delete removes an empty room. A room that still has inventory is
// deactivated instead.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, id uint) (*DeleteResult, error) {
	room, err := s.policy.Room(ctx, actor.Identity, id)
	if err != nil {
		return nil, err
	}

	var res DeleteResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items int64
		if err := tx.Model(&models.InventoryItem{}).Where("room_id = ?", room.ID).Count(&items).Error; err != nil {
			return err
		}
		if items > 0 {
			res.Deactivated = true
			return tx.Model(room).Update("is_active", false).Error
		}
		res.Deleted = true
		return tx.Delete(room).Error
	})
	if err != nil {
		return nil, apperr.Internal("could not delete room", err)
	}

	action := models.AuditActionDelete
	if res.Deactivated {
		action = models.AuditActionDeactivate
	}
	s.audit.Record(actor.Audit(action, models.EntityRoom, room.ID, map[string]any{
		"name":       room.Name,
		"propertyId": room.PropertyID,
	}))
	return &res, nil
}
