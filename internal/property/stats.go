package property

import (
	"context"

	"propertytrack/internal/apperr"
	"propertytrack/internal/auth"
	"propertytrack/internal/models"
)

type InventoryStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"byStatus"`
}

type MaintenanceStats struct {
	Total      int64            `json:"total"`
	Open       int64            `json:"open"`
	ByStatus   map[string]int64 `json:"byStatus"`
	ByPriority map[string]int64 `json:"byPriority"`
}

type Stats struct {
	PropertyID  uint             `json:"propertyId"`
	Rooms       int64            `json:"rooms"`
	Inventory   InventoryStats   `json:"inventory"`
	Maintenance MaintenanceStats `json:"maintenance"`
}

type groupCount struct {
	Bucket string
	Count  int64
}

// Stats summarises active rooms, inventory by status and maintenance by
// status and priority.
func (s *Service) Stats(ctx context.Context, ident auth.Identity, id uint) (*Stats, error) {
	prop, err := s.policy.Property(ctx, ident, id)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	st := &Stats{
		PropertyID: prop.ID,
		Inventory:  InventoryStats{ByStatus: map[string]int64{}},
		Maintenance: MaintenanceStats{
			ByStatus:   map[string]int64{},
			ByPriority: map[string]int64{},
		},
	}

	if err := db.Model(&models.Room{}).
		Where("property_id = ? AND is_active = ?", prop.ID, true).
		Count(&st.Rooms).Error; err != nil {
		return nil, apperr.Internal("could not compute stats", err)
	}

	var rows []groupCount
	if err := db.Model(&models.InventoryItem{}).
		Select("status AS bucket, COUNT(*) AS count").
		Where("property_id = ?", prop.ID).
		Group("status").Scan(&rows).Error; err != nil {
		return nil, apperr.Internal("could not compute stats", err)
	}
	for _, r := range rows {
		st.Inventory.ByStatus[r.Bucket] = r.Count
		st.Inventory.Total += r.Count
	}

	rows = nil
	if err := db.Model(&models.MaintenanceTask{}).
		Select("status AS bucket, COUNT(*) AS count").
		Where("property_id = ?", prop.ID).
		Group("status").Scan(&rows).Error; err != nil {
		return nil, apperr.Internal("could not compute stats", err)
	}
	for _, r := range rows {
		st.Maintenance.ByStatus[r.Bucket] = r.Count
		st.Maintenance.Total += r.Count
		switch models.MaintenanceStatus(r.Bucket) {
		case models.MaintenancePending, models.MaintenanceInProgress:
			st.Maintenance.Open += r.Count
		}
	}

	rows = nil
	if err := db.Model(&models.MaintenanceTask{}).
		Select("priority AS bucket, COUNT(*) AS count").
		Where("property_id = ?", prop.ID).
		Group("priority").Scan(&rows).Error; err != nil {
		return nil, apperr.Internal("could not compute stats", err)
	}
	for _, r := range rows {
		st.Maintenance.ByPriority[r.Bucket] = r.Count
	}

	return st, nil
}
