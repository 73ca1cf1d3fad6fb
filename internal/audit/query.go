package audit

import (
	"context"
	"fmt"
	"time"

	"propertytrack/internal/models"

	"gorm.io/gorm"
)

// Filter controls which audit logs to return.
type Filter struct {
	UserID     uint
	Action     string
	EntityType string
	EntityID   uint
	From       time.Time // inclusive, zero means unbounded
	To         time.Time // inclusive, zero means unbounded
	Limit      int       // default 50, max 200
	Offset     int
}

type ListResult struct {
	Logs   []models.AuditLog `json:"logs"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// List returns audit logs matching the filter, most recent first.
func List(ctx context.Context, db *gorm.DB, f Filter) (*ListResult, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	q := db.WithContext(ctx).Model(&models.AuditLog{})
	if f.UserID > 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID > 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at <= ?", f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting audit logs: %w", err)
	}

	logs := []models.AuditLog{}
	if err := q.Order("created_at DESC, id DESC").Limit(f.Limit).Offset(f.Offset).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("querying audit logs: %w", err)
	}

	return &ListResult{Logs: logs, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}
