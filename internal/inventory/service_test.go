package inventory

import (
	"context"
	"testing"
	"time"

	"propertytrack/internal/apperr"
	"propertytrack/internal/audit/audittest"
	"propertytrack/internal/auth"
	"propertytrack/internal/authz"
	"propertytrack/internal/logging"
	"propertytrack/internal/models"
	"propertytrack/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	rec   *audittest.Recorder
	svc   *Service
	host  *models.User
	other *models.User
	prop  *models.Property
	room  *models.Room
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	rec := &audittest.Recorder{}
	host := testutil.CreateUser(t, db, "host@example.com", models.RoleHost)
	prop := testutil.CreateProperty(t, db, host.ID, "Home")

	f := &fixture{
		db:    db,
		rec:   rec,
		svc:   NewService(db, newPolicy(t, db), rec, logging.Component(logging.Discard(), "inventory")),
		host:  host,
		other: testutil.CreateUser(t, db, "other@example.com", models.RoleHost),
		prop:  prop,
		room:  testutil.CreateRoom(t, db, prop.ID, "Bedroom"),
		clock: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func actorOf(u *models.User) auth.Actor {
	return auth.Actor{Identity: auth.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}}
}

func statusp(s models.InventoryStatus) *models.InventoryStatus { return &s }

func intp(i int) *int { return &i }

func TestCreateDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.Create(ctx, actorOf(f.host), f.room.ID, CreateInput{Name: "Pillow"})
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, models.InventoryOK, item.Status)
	assert.Equal(t, f.prop.ID, item.PropertyID)
	assert.Nil(t, item.LastCheckedAt)

	zero, err := f.svc.Create(ctx, actorOf(f.host), f.room.ID, CreateInput{Name: "Spare", Quantity: intp(0)})
	require.NoError(t, err)
	var reloaded models.InventoryItem
	require.NoError(t, f.db.First(&reloaded, zero.ID).Error)
	assert.Equal(t, 0, reloaded.Quantity)

	_, err = f.svc.Create(ctx, actorOf(f.host), f.room.ID, CreateInput{Name: "Neg", Quantity: intp(-1)})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = f.svc.Create(ctx, actorOf(f.other), f.room.ID, CreateInput{Name: "Nope"})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestStatusStampOnlyOnChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := testutil.CreateItem(t, f.db, f.room, "Lamp")

	// same status: no stamp
	got, err := f.svc.Update(ctx, actorOf(f.host), item.ID, UpdateInput{Status: statusp(models.InventoryOK)})
	require.NoError(t, err)
	assert.Nil(t, got.LastCheckedByID)
	assert.Nil(t, got.LastCheckedAt)

	got, err = f.svc.Update(ctx, actorOf(f.host), item.ID, UpdateInput{Status: statusp(models.InventoryDamaged)})
	require.NoError(t, err)
	require.NotNil(t, got.LastCheckedByID)
	assert.Equal(t, f.host.ID, *got.LastCheckedByID)
	require.NotNil(t, got.LastCheckedAt)
	assert.True(t, got.LastCheckedAt.Equal(f.clock))
	assert.Len(t, f.rec.Actions(models.AuditActionStatusChange), 1)

	// repeating the same status later leaves the stamp alone
	stamped := *got.LastCheckedAt
	f.clock = f.clock.Add(time.Hour)
	got, err = f.svc.Update(ctx, actorOf(f.host), item.ID, UpdateInput{Status: statusp(models.InventoryDamaged), Notes: strp("cracked")})
	require.NoError(t, err)
	assert.True(t, got.LastCheckedAt.Equal(stamped))

	var reloaded models.InventoryItem
	require.NoError(t, f.db.First(&reloaded, item.ID).Error)
	assert.True(t, reloaded.LastCheckedAt.Equal(stamped))
	assert.Equal(t, "cracked", reloaded.Notes)
}

func strp(s string) *string { return &s }

func TestUpdateIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := testutil.CreateItem(t, f.db, f.room, "Rug")

	in := UpdateInput{Name: strp("Big rug"), Quantity: intp(2), Status: statusp(models.InventoryMissing)}
	first, err := f.svc.Update(ctx, actorOf(f.host), item.ID, in)
	require.NoError(t, err)

	f.clock = f.clock.Add(time.Minute)
	second, err := f.svc.Update(ctx, actorOf(f.host), item.ID, in)
	require.NoError(t, err)

	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, first.Quantity, second.Quantity)
	assert.Equal(t, first.Status, second.Status)
	assert.True(t, first.LastCheckedAt.Equal(*second.LastCheckedAt))
}

func TestMoveItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := testutil.CreateItem(t, f.db, f.room, "Chair")
	sameProp := testutil.CreateRoom(t, f.db, f.prop.ID, "Office")

	otherProp := testutil.CreateProperty(t, f.db, f.host.ID, "Elsewhere")
	elsewhere := testutil.CreateRoom(t, f.db, otherProp.ID, "Hall")

	got, err := f.svc.Update(ctx, actorOf(f.host), item.ID, UpdateInput{RoomID: &sameProp.ID})
	require.NoError(t, err)
	assert.Equal(t, sameProp.ID, got.RoomID)

	_, err = f.svc.Update(ctx, actorOf(f.host), item.ID, UpdateInput{RoomID: &elsewhere.ID})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Equal(t, 400, err.(*apperr.Error).Status())

	missing := uint(9999)
	_, err = f.svc.Update(ctx, actorOf(f.host), item.ID, UpdateInput{RoomID: &missing})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestDeleteDetachesTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := testutil.CreateItem(t, f.db, f.room, "Boiler")
	task := &models.MaintenanceTask{PropertyID: f.prop.ID, InventoryItemID: &item.ID, Title: "Service boiler",
		CreatedByID: f.host.ID, Status: models.MaintenancePending, Priority: models.PriorityHigh}
	require.NoError(t, f.db.Create(task).Error)

	assert.True(t, apperr.IsKind(f.svc.Delete(ctx, actorOf(f.other), item.ID), apperr.KindForbidden))
	require.NoError(t, f.svc.Delete(ctx, actorOf(f.host), item.ID))

	_, err := f.svc.Get(ctx, actorOf(f.host).Identity, item.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	var reloaded models.MaintenanceTask
	require.NoError(t, f.db.First(&reloaded, task.ID).Error)
	assert.Nil(t, reloaded.InventoryItemID)
}

func TestBulkCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	items, err := f.svc.BulkCreate(ctx, actorOf(f.host), f.room.ID, BulkCreateInput{Items: []CreateInput{
		{Name: "Sheet"}, {Name: "Blanket", Quantity: intp(3)}, {Name: "Towel", Status: models.InventoryNeedsAttention},
	}})
	require.NoError(t, err)
	require.Len(t, items, 3)
	for _, it := range items {
		assert.NotZero(t, it.ID)
		assert.Equal(t, f.room.ID, it.RoomID)
	}
	assert.Len(t, f.rec.Actions(models.AuditActionCreate), 3)

	// one bad entry rejects the whole batch
	_, err = f.svc.BulkCreate(ctx, actorOf(f.host), f.room.ID, BulkCreateInput{Items: []CreateInput{
		{Name: "Fine"}, {Name: ""},
	}})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, e.Kind)
	assert.Equal(t, "items[1].name", e.Fields[0].Field)

	var count int64
	require.NoError(t, f.db.Model(&models.InventoryItem{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	_, err = f.svc.BulkCreate(ctx, actorOf(f.other), f.room.ID, BulkCreateInput{Items: []CreateInput{{Name: "x"}}})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestBulkStatusIgnoresForeignItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	otherRoom := testutil.CreateRoom(t, f.db, f.prop.ID, "Other")

	var ids []uint
	for _, n := range []string{"a", "b", "c"} {
		ids = append(ids, testutil.CreateItem(t, f.db, f.room, n).ID)
	}
	var foreign []uint
	for _, n := range []string{"d", "e"} {
		foreign = append(foreign, testutil.CreateItem(t, f.db, otherRoom, n).ID)
	}

	res, err := f.svc.BulkStatus(ctx, actorOf(f.host), f.room.ID, BulkStatusInput{
		ItemIDs: append(append([]uint{}, ids...), foreign...),
		Status:  models.InventoryDamaged,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.MatchedCount)
	assert.Equal(t, int64(3), res.ModifiedCount)

	var untouched []models.InventoryItem
	require.NoError(t, f.db.Where("id IN ?", foreign).Find(&untouched).Error)
	for _, it := range untouched {
		assert.Equal(t, models.InventoryOK, it.Status)
		assert.Nil(t, it.LastCheckedAt)
	}

	var updated []models.InventoryItem
	require.NoError(t, f.db.Where("id IN ?", ids).Find(&updated).Error)
	for _, it := range updated {
		assert.Equal(t, models.InventoryDamaged, it.Status)
		require.NotNil(t, it.LastCheckedByID)
		assert.Equal(t, f.host.ID, *it.LastCheckedByID)
	}

	summary := f.rec.Actions(models.AuditActionBulkStatusUpdate)
	require.Len(t, summary, 1)
	assert.Equal(t, f.room.ID, summary[0].EntityID)

	// second run matches but modifies nothing
	res, err = f.svc.BulkStatus(ctx, actorOf(f.host), f.room.ID, BulkStatusInput{ItemIDs: ids, Status: models.InventoryDamaged})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.MatchedCount)
	assert.Equal(t, int64(0), res.ModifiedCount)
}

func TestBulkStatusForbiddenForNonOwner(t *testing.T) {
	f := newFixture(t)
	item := testutil.CreateItem(t, f.db, f.room, "Vase")

	_, err := f.svc.BulkStatus(context.Background(), actorOf(f.other), f.room.ID, BulkStatusInput{
		ItemIDs: []uint{item.ID}, Status: models.InventoryMissing,
	})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateItem(t, f.db, f.room, "Sheet")
	towel := testutil.CreateItem(t, f.db, f.room, "Towel")
	require.NoError(t, f.db.Model(towel).Updates(map[string]any{"status": models.InventoryMissing, "category": "bath"}).Error)

	all, err := f.svc.List(ctx, actorOf(f.host).Identity, f.room.ID, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	missing, err := f.svc.List(ctx, actorOf(f.host).Identity, f.room.ID, ListFilter{Status: "missing"})
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "Towel", missing[0].Name)

	linen, err := f.svc.List(ctx, actorOf(f.host).Identity, f.room.ID, ListFilter{Category: "linen"})
	require.NoError(t, err)
	assert.Len(t, linen, 1)
}

func newPolicy(t *testing.T, db *gorm.DB) *authz.Policy {
	t.Helper()
	p := authz.NewPolicy(db, time.Minute)
	t.Cleanup(p.Close)
	return p
}
