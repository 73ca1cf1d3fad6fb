package inventory

import (
	"context"
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

const bulkBatchSize = 50

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
	Name     string                 `json:"name" validate:"required,max=200"`
	Category string                 `json:"category" validate:"max=100"`
	Quantity *int                   `json:"quantity" validate:"omitnil,gte=0"`
	Status   models.InventoryStatus `json:"status" validate:"omitempty,oneof=ok missing damaged needs_attention"`
	Notes    string                 `json:"notes" validate:"max=1000"`
}

type UpdateInput struct {
	Name     *string                 `json:"name" validate:"omitnil,max=200"`
	Category *string                 `json:"category" validate:"omitnil,max=100"`
	Quantity *int                    `json:"quantity" validate:"omitnil,gte=0"`
	Status   *models.InventoryStatus `json:"status" validate:"omitnil,oneof=ok missing damaged needs_attention"`
	Notes    *string                 `json:"notes" validate:"omitnil,max=1000"`
	RoomID   *uint                   `json:"roomId" validate:"omitnil,gt=0"`
}

type BulkCreateInput struct {
	Items []CreateInput `json:"items" validate:"required,min=1,max=100,dive"`
}

type BulkStatusInput struct {
	ItemIDs []uint                 `json:"itemIds" validate:"required,min=1,max=500,dive,gt=0"`
	Status  models.InventoryStatus `json:"status" validate:"required,oneof=ok missing damaged needs_attention"`
}

type BulkStatusResult struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

type ListFilter struct {
	Status   string
	Category string
}

func (s *Service) List(ctx context.Context, ident auth.Identity, roomID uint, f ListFilter) ([]models.InventoryItem, error) {
	if _, err := s.policy.Room(ctx, ident, roomID); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Where("room_id = ?", roomID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}

	items := []models.InventoryItem{}
	if err := q.Order("name ASC, id ASC").Find(&items).Error; err != nil {
		return nil, apperr.Internal("could not list inventory", err)
	}
	return items, nil
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, roomID uint, in CreateInput) (*models.InventoryItem, error) {
	room, err := s.writableRoom(ctx, actor.Identity, roomID)
	if err != nil {
		return nil, err
	}
	normalize(&in)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	item := newItem(room, in)
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, apperr.Internal("could not create inventory item", err)
	}

	s.audit.Record(actor.Audit(models.AuditActionCreate, models.EntityInventoryItem, item.ID, createdDetails(item)))
	return item, nil
}

// BulkCreate authorizes the room once and inserts every item in a single
// transaction. Each created item gets its own audit entry.
func (s *Service) BulkCreate(ctx context.Context, actor auth.Actor, roomID uint, in BulkCreateInput) ([]models.InventoryItem, error) {
	room, err := s.writableRoom(ctx, actor.Identity, roomID)
	if err != nil {
		return nil, err
	}
	for i := range in.Items {
		normalize(&in.Items[i])
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	items := make([]models.InventoryItem, 0, len(in.Items))
	for _, ci := range in.Items {
		items = append(items, *newItem(room, ci))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&items, bulkBatchSize).Error
	})
	if err != nil {
		return nil, apperr.Internal("could not create inventory items", err)
	}

	for i := range items {
		s.audit.Record(actor.Audit(models.AuditActionCreate, models.EntityInventoryItem, items[i].ID, createdDetails(&items[i])))
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, ident auth.Identity, id uint) (*models.InventoryItem, error) {
	return s.policy.Item(ctx, ident, id)
}

func (s *Service) Update(ctx context.Context, actor auth.Actor, id uint, in UpdateInput) (*models.InventoryItem, error) {
	item, err := s.policy.Item(ctx, actor.Identity, id)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	changes := audit.Changes{}

	if in.RoomID != nil && *in.RoomID != item.RoomID {
		target, err := s.policy.Room(ctx, actor.Identity, *in.RoomID)
		if err != nil {
			return nil, err
		}
		if target.PropertyID != item.PropertyID {
			return nil, apperr.Conflict("inventory items cannot be moved to a room in another property")
		}
		changes.Set("roomId", item.RoomID, target.ID)
		item.RoomID = target.ID
	}
	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if v == "" {
			return nil, apperr.Validation("validation failed", apperr.FieldError{Field: "name", Message: "cannot be empty"})
		}
		changes.Set("name", item.Name, v)
		item.Name = v
	}
	if in.Category != nil {
		v := strings.TrimSpace(*in.Category)
		changes.Set("category", item.Category, v)
		item.Category = v
	}
	if in.Quantity != nil {
		changes.Set("quantity", item.Quantity, *in.Quantity)
		item.Quantity = *in.Quantity
	}
	if in.Notes != nil {
		v := strings.TrimSpace(*in.Notes)
		changes.Set("notes", item.Notes, v)
		item.Notes = v
	}

	statusChanged := in.Status != nil && *in.Status != item.Status
	if statusChanged {
		changes.Set("status", item.Status, *in.Status)
		item.Status = *in.Status
		now := s.now()
		checker := actor.UserID
		item.LastCheckedByID = &checker
		item.LastCheckedAt = &now
	}

	if changes.Empty() {
		return item, nil
	}
	if err := s.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, apperr.Internal("could not update inventory item", err)
	}

	action := models.AuditActionUpdate
	if statusChanged && len(changes) == 1 {
		action = models.AuditActionStatusChange
	}
	s.audit.Record(actor.Audit(action, models.EntityInventoryItem, item.ID, changes.Details()))
	return item, nil
}

// Delete removes the item and detaches any maintenance tasks that
// referenced it.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, id uint) error {
	item, err := s.policy.Item(ctx, actor.Identity, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.MaintenanceTask{}).
			Where("inventory_item_id = ?", item.ID).
			Update("inventory_item_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(item).Error
	})
	if err != nil {
		return apperr.Internal("could not delete inventory item", err)
	}

	s.audit.Record(actor.Audit(models.AuditActionDelete, models.EntityInventoryItem, item.ID, map[string]any{
		"name":   item.Name,
		"roomId": item.RoomID,
	}))
	return nil
}

// BulkStatus sets status on the given items of one room in a single
// UPDATE. Ids that belong to other rooms are ignored. Items already in the
// target status count as matched but not modified, and keep their stamps.
func (s *Service) BulkStatus(ctx context.Context, actor auth.Actor, roomID uint, in BulkStatusInput) (*BulkStatusResult, error) {
	room, err := s.policy.Room(ctx, actor.Identity, roomID)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var res BulkStatusResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.InventoryItem{}).
			Where("room_id = ? AND id IN ?", room.ID, in.ItemIDs).
			Count(&res.MatchedCount).Error; err != nil {
			return err
		}

		upd := tx.Model(&models.InventoryItem{}).
			Where("room_id = ? AND id IN ? AND status <> ?", room.ID, in.ItemIDs, in.Status).
			Updates(map[string]any{
				"status":             in.Status,
				"last_checked_by_id": actor.UserID,
				"last_checked_at":    s.now(),
			})
		if upd.Error != nil {
			return upd.Error
		}
		res.ModifiedCount = upd.RowsAffected
		return nil
	})
	if err != nil {
		return nil, apperr.Internal("could not update inventory status", err)
	}

	s.audit.Record(actor.Audit(models.AuditActionBulkStatusUpdate, models.EntityRoom, room.ID, map[string]any{
		"itemIds":       in.ItemIDs,
		"status":        in.Status,
		"matchedCount":  res.MatchedCount,
		"modifiedCount": res.ModifiedCount,
	}))
	return &res, nil
}

// writableRoom resolves the room and refuses inactive ones.
func (s *Service) writableRoom(ctx context.Context, ident auth.Identity, roomID uint) (*models.Room, error) {
	room, err := s.policy.Room(ctx, ident, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsActive {
		return nil, apperr.Conflict("cannot add inventory to an inactive room")
	}
	return room, nil
}

func normalize(in *CreateInput) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Notes = strings.TrimSpace(in.Notes)
}

func newItem(room *models.Room, in CreateInput) *models.InventoryItem {
	qty := 1
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	status := in.Status
	if status == "" {
		status = models.InventoryOK
	}
	return &models.InventoryItem{
		RoomID:     room.ID,
		PropertyID: room.PropertyID,
		Name:       in.Name,
		Category:   in.Category,
		Quantity:   qty,
		Status:     status,
		Notes:      in.Notes,
	}
}

func createdDetails(item *models.InventoryItem) map[string]any {
	return map[string]any{
		"name":     item.Name,
		"roomId":   item.RoomID,
		"quantity": item.Quantity,
		"status":   item.Status,
	}
}
