package maintenance

import (
	"context"
	"errors"
	"strings"
	"time"

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
	now    func() time.Time
}

func NewService(db *gorm.DB, policy *authz.Policy, rec auth.Recorder, log *logrus.Entry) *Service {
	return &Service{db: db, policy: policy, audit: rec, log: log, now: time.Now}
}

type CreateInput struct {
	Title           string                     `json:"title" validate:"required,max=200"`
	Description     string                     `json:"description" validate:"max=2000"`
	Status          models.MaintenanceStatus   `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority        models.MaintenancePriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	InventoryItemID *uint                      `json:"inventoryItemId" validate:"omitnil,gt=0"`
	AssignedToID    *uint                      `json:"assignedTo" validate:"omitnil,gt=0"`
	DueDate         *time.Time                 `json:"dueDate"`
}

type UpdateInput struct {
	Title           *string                     `json:"title" validate:"omitnil,max=200"`
	Description     *string                     `json:"description" validate:"omitnil,max=2000"`
	Status          *models.MaintenanceStatus   `json:"status" validate:"omitnil,oneof=pending in_progress completed cancelled"`
	Priority        *models.MaintenancePriority `json:"priority" validate:"omitnil,oneof=low medium high urgent"`
	// null clears the reference; an absent key keeps it
	InventoryItemID validation.Nullable[uint]      `json:"inventoryItemId"`
	AssignedToID    validation.Nullable[uint]      `json:"assignedTo"`
	DueDate         validation.Nullable[time.Time] `json:"dueDate"`
}

type ListFilter struct {
	Status   string
	Priority string
}

func (s *Service) List(ctx context.Context, ident auth.Identity, propertyID uint, f ListFilter) ([]models.MaintenanceTask, error) {
	if _, err := s.policy.Property(ctx, ident, propertyID); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Where("property_id = ?", propertyID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}

	tasks := []models.MaintenanceTask{}
	if err := q.Order("created_at DESC, id DESC").Find(&tasks).Error; err != nil {
		return nil, apperr.Internal("could not list maintenance tasks", err)
	}
	return tasks, nil
}

// Create is open to every role, but the caller must still own the property.
func (s *Service) Create(ctx context.Context, actor auth.Actor, propertyID uint, in CreateInput) (*models.MaintenanceTask, error) {
	prop, err := s.policy.Property(ctx, actor.Identity, propertyID)
	if err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.InventoryItemID != nil {
		if err := s.checkItem(ctx, prop.ID, *in.InventoryItemID); err != nil {
			return nil, err
		}
	}
	if in.AssignedToID != nil {
		if err := s.checkAssignee(ctx, *in.AssignedToID); err != nil {
			return nil, err
		}
	}
	if in.Status == "" {
		in.Status = models.MaintenancePending
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}

	task := &models.MaintenanceTask{
		PropertyID:      prop.ID,
		InventoryItemID: in.InventoryItemID,
		Title:           in.Title,
		Description:     strings.TrimSpace(in.Description),
		Status:          in.Status,
		Priority:        in.Priority,
		AssignedToID:    in.AssignedToID,
		CreatedByID:     actor.UserID,
		DueDate:         in.DueDate,
	}
	if task.Status == models.MaintenanceCompleted {
		now := s.now()
		task.CompletedAt = &now
	}

	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, apperr.Internal("could not create maintenance task", err)
	}

	s.audit.Record(actor.Audit(models.AuditActionCreate, models.EntityMaintenanceTask, task.ID, map[string]any{
		"title":      task.Title,
		"propertyId": task.PropertyID,
		"priority":   task.Priority,
	}))
	return task, nil
}

func (s *Service) Get(ctx context.Context, ident auth.Identity, id uint) (*models.MaintenanceTask, error) {
	return s.policy.Task(ctx, ident, id)
}

func (s *Service) Update(ctx context.Context, actor auth.Actor, id uint, in UpdateInput) (*models.MaintenanceTask, error) {
	task, err := s.policy.Task(ctx, actor.Identity, id)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := positiveIDs(in); err != nil {
		return nil, err
	}

	changes := audit.Changes{}

	if in.Title != nil {
		v := strings.TrimSpace(*in.Title)
		if v == "" {
			return nil, apperr.Validation("validation failed", apperr.FieldError{Field: "title", Message: "cannot be empty"})
		}
		changes.Set("title", task.Title, v)
		task.Title = v
	}
	if in.Description != nil {
		v := strings.TrimSpace(*in.Description)
		changes.Set("description", task.Description, v)
		task.Description = v
	}
	if in.Priority != nil {
		changes.Set("priority", task.Priority, *in.Priority)
		task.Priority = *in.Priority
	}
	if in.InventoryItemID.Set && !sameID(task.InventoryItemID, in.InventoryItemID.Value) {
		if v := in.InventoryItemID.Value; v != nil {
			if err := s.checkItem(ctx, task.PropertyID, *v); err != nil {
				return nil, err
			}
		}
		changes.Set("inventoryItemId", derefID(task.InventoryItemID), derefID(in.InventoryItemID.Value))
		task.InventoryItemID = in.InventoryItemID.Value
	}
	if in.AssignedToID.Set && !sameID(task.AssignedToID, in.AssignedToID.Value) {
		if v := in.AssignedToID.Value; v != nil {
			if err := s.checkAssignee(ctx, *v); err != nil {
				return nil, err
			}
		}
		changes.Set("assignedTo", derefID(task.AssignedToID), derefID(in.AssignedToID.Value))
		task.AssignedToID = in.AssignedToID.Value
	}
	if in.DueDate.Set && !sameTime(task.DueDate, in.DueDate.Value) {
		changes.Set("dueDate", task.DueDate, in.DueDate.Value)
		task.DueDate = in.DueDate.Value
	}

	statusChanged := in.Status != nil && *in.Status != task.Status
	if statusChanged {
		from := task.Status
		changes.Set("status", from, *in.Status)
		task.Status = *in.Status
		switch {
		case task.Status == models.MaintenanceCompleted:
			now := s.now()
			task.CompletedAt = &now
		case from == models.MaintenanceCompleted:
			task.CompletedAt = nil
		}
	}

	if changes.Empty() {
		return task, nil
	}
	if err := s.db.WithContext(ctx).Save(task).Error; err != nil {
		return nil, apperr.Internal("could not update maintenance task", err)
	}

	action := models.AuditActionUpdate
	if statusChanged && len(changes) == 1 {
		action = models.AuditActionStatusChange
	}
	s.audit.Record(actor.Audit(action, models.EntityMaintenanceTask, task.ID, changes.Details()))
	return task, nil
}

func (s *Service) Delete(ctx context.Context, actor auth.Actor, id uint) error {
	task, err := s.policy.Task(ctx, actor.Identity, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(task).Error; err != nil {
		return apperr.Internal("could not delete maintenance task", err)
	}

	s.audit.Record(actor.Audit(models.AuditActionDelete, models.EntityMaintenanceTask, task.ID, map[string]any{
		"title":      task.Title,
		"propertyId": task.PropertyID,
	}))
	return nil
}

// checkItem requires the referenced item to live in the task's property.
func (s *Service) checkItem(ctx context.Context, propertyID, itemID uint) error {
	var item models.InventoryItem
	err := s.db.WithContext(ctx).Select("id", "property_id").First(&item, itemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Validation("validation failed",
				apperr.FieldError{Field: "inventoryItemId", Message: "does not exist"})
		}
		return apperr.Internal("could not load inventory item", err)
	}
	if item.PropertyID != propertyID {
		return apperr.Conflict("inventory item belongs to another property")
	}
	return nil
}

func (s *Service) checkAssignee(ctx context.Context, userID uint) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	if err != nil {
		return apperr.Internal("could not load assignee", err)
	}
	if count == 0 {
		return apperr.Validation("validation failed",
			apperr.FieldError{Field: "assignedTo", Message: "must reference an active user"})
	}
	return nil
}

func positiveIDs(in UpdateInput) error {
	var fields []apperr.FieldError
	if v := in.InventoryItemID.Value; v != nil && *v == 0 {
		fields = append(fields, apperr.FieldError{Field: "inventoryItemId", Message: "must be greater than 0"})
	}
	if v := in.AssignedToID.Value; v != nil && *v == 0 {
		fields = append(fields, apperr.FieldError{Field: "assignedTo", Message: "must be greater than 0"})
	}
	if len(fields) > 0 {
		return apperr.Validation("validation failed", fields...)
	}
	return nil
}

func sameID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func derefID(p *uint) any {
	if p == nil {
		return nil
	}
	return *p
}
