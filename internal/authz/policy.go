// Package authz decides whether an authenticated caller may act on a
// resource. Every resource traces back to a Property, and a non-admin may
// only touch properties they own.
package authz

import (
	"context"
	"errors"
	"strconv"
	"time"

	"propertytrack/internal/apperr"
	"propertytrack/internal/auth"
	"propertytrack/internal/models"

	"github.com/karlseguin/ccache/v3"
	"gorm.io/gorm"
)

const errNotAllowed = "you do not have permission to access this resource"

// Policy resolves resources and enforces ownership. Property owner ids are
// cached; writers that change an owner or deactivate a property must call
// InvalidateOwner.
type Policy struct {
	db     *gorm.DB
	owners *ccache.Cache[uint]
	ttl    time.Duration
}

func NewPolicy(db *gorm.DB, ownerTTL time.Duration) *Policy {
	if ownerTTL <= 0 {
		ownerTTL = 5 * time.Minute
	}
	return &Policy{
		db:     db,
		owners: ccache.New(ccache.Configure[uint]().MaxSize(10000)),
		ttl:    ownerTTL,
	}
}

// Close stops the owner cache's background worker.
func (p *Policy) Close() {
	p.owners.Stop()
}

// CanManage reports whether ident may act on something owned by ownerID.
func (p *Policy) CanManage(ident auth.Identity, ownerID uint) bool {
	return ident.IsAdmin() || (ownerID != 0 && ident.UserID == ownerID)
}

// Property loads the property and checks ownership. A missing property is
// reported before any permission check.
func (p *Policy) Property(ctx context.Context, ident auth.Identity, id uint) (*models.Property, error) {
	var prop models.Property
	if err := p.db.WithContext(ctx).First(&prop, id).Error; err != nil {
		return nil, notFoundOr(err, "property not found")
	}
	p.remember(prop.ID, prop.OwnerID)

	if !p.CanManage(ident, prop.OwnerID) {
		return nil, apperr.Forbidden(errNotAllowed)
	}
	return &prop, nil
}

// Room loads the room, then checks ownership of its property.
func (p *Policy) Room(ctx context.Context, ident auth.Identity, id uint) (*models.Room, error) {
	var room models.Room
	if err := p.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, notFoundOr(err, "room not found")
	}
	if err := p.authorizeProperty(ctx, ident, room.PropertyID); err != nil {
		return nil, err
	}
	return &room, nil
}

// Item loads the inventory item, then checks ownership of its property.
func (p *Policy) Item(ctx context.Context, ident auth.Identity, id uint) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := p.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, notFoundOr(err, "inventory item not found")
	}
	if err := p.authorizeProperty(ctx, ident, item.PropertyID); err != nil {
		return nil, err
	}
	return &item, nil
}

// Task loads the maintenance task, then checks ownership of its property.
func (p *Policy) Task(ctx context.Context, ident auth.Identity, id uint) (*models.MaintenanceTask, error) {
	var task models.MaintenanceTask
	if err := p.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, notFoundOr(err, "maintenance task not found")
	}
	if err := p.authorizeProperty(ctx, ident, task.PropertyID); err != nil {
		return nil, err
	}
	return &task, nil
}

// InvalidateOwner drops the cached owner of a property.
func (p *Policy) InvalidateOwner(propertyID uint) {
	p.owners.Delete(ownerKey(propertyID))
}

// authorizeProperty requires the property to exist even for admins.
func (p *Policy) authorizeProperty(ctx context.Context, ident auth.Identity, propertyID uint) error {
	owner, err := p.ownerOf(ctx, propertyID)
	if err != nil {
		return err
	}
	if !p.CanManage(ident, owner) {
		return apperr.Forbidden(errNotAllowed)
	}
	return nil
}

func (p *Policy) ownerOf(ctx context.Context, propertyID uint) (uint, error) {
	key := ownerKey(propertyID)
	if item := p.owners.Get(key); item != nil && !item.Expired() {
		return item.Value(), nil
	}

	var prop models.Property
	err := p.db.WithContext(ctx).Select("id", "owner_id").First(&prop, propertyID).Error
	if err != nil {
		return 0, notFoundOr(err, "property not found")
	}
	p.owners.Set(key, prop.OwnerID, p.ttl)
	return prop.OwnerID, nil
}

func (p *Policy) remember(propertyID, ownerID uint) {
	p.owners.Set(ownerKey(propertyID), ownerID, p.ttl)
}

func ownerKey(propertyID uint) string {
	return strconv.FormatUint(uint64(propertyID), 10)
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(msg)
	}
	return apperr.Internal("could not load resource", err)
}
