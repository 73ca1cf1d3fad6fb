package room

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
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	rec := &audittest.Recorder{}
	host := testutil.CreateUser(t, db, "host@example.com", models.RoleHost)
	return &fixture{
		db:    db,
		rec:   rec,
		svc:   NewService(db, newPolicy(t, db), rec, logging.Component(logging.Discard(), "room")),
		host:  host,
		other: testutil.CreateUser(t, db, "other@example.com", models.RoleHost),
		prop:  testutil.CreateProperty(t, db, host.ID, "Home"),
	}
}

func actorOf(u *models.User) auth.Actor {
	return auth.Actor{Identity: auth.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}}
}

func TestCreateAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.svc.Create(ctx, actorOf(f.host), f.prop.ID, CreateInput{Name: "Kitchen", RoomType: models.RoomKitchen})
	require.NoError(t, err)
	assert.Equal(t, f.prop.ID, room.PropertyID)
	assert.Len(t, f.rec.Actions(models.AuditActionCreate), 1)

	_, err = f.svc.Create(ctx, actorOf(f.other), f.prop.ID, CreateInput{Name: "Hijack"})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = f.svc.Create(ctx, actorOf(f.host), f.prop.ID, CreateInput{Name: "Bad", RoomType: "garage"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	rooms, err := f.svc.List(ctx, actorOf(f.host).Identity, f.prop.ID, false)
	require.NoError(t, err)
	assert.Len(t, rooms, 1)

	_, err = f.svc.List(ctx, actorOf(f.other).Identity, f.prop.ID, false)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestCreateOnInactivePropertyIsConflict(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(f.prop).Update("is_active", false).Error)

	_, err := f.svc.Create(context.Background(), actorOf(f.host), f.prop.ID, CreateInput{Name: "Late"})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestDeleteRoomWithItemsDeactivates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := testutil.CreateRoom(t, f.db, f.prop.ID, "Full")
	testutil.CreateItem(t, f.db, room, "Bed")

	res, err := f.svc.Delete(ctx, actorOf(f.host), room.ID)
	require.NoError(t, err)
	assert.True(t, res.Deactivated)
	assert.False(t, res.Deleted)

	got, err := f.svc.Get(ctx, actorOf(f.host).Identity, room.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Len(t, f.rec.Actions(models.AuditActionDeactivate), 1)
}

func TestDeleteEmptyRoomRemoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := testutil.CreateRoom(t, f.db, f.prop.ID, "Empty")

	res, err := f.svc.Delete(ctx, actorOf(f.host), room.ID)
	require.NoError(t, err)
	assert.True(t, res.Deleted)

	_, err = f.svc.Get(ctx, actorOf(f.host).Identity, room.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.Len(t, f.rec.Actions(models.AuditActionDelete), 1)
}

func TestDeleteByNonOwnerForbidden(t *testing.T) {
	f := newFixture(t)
	room := testutil.CreateRoom(t, f.db, f.prop.ID, "Guarded")

	_, err := f.svc.Delete(context.Background(), actorOf(f.other), room.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	var count int64
	require.NoError(t, f.db.Model(&models.Room{}).Where("id = ?", room.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpdateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := testutil.CreateRoom(t, f.db, f.prop.ID, "Study")

	name := "Office"
	zero := 0
	rt := models.RoomOffice
	in := UpdateInput{Name: &name, Floor: &zero, RoomType: &rt}

	first, err := f.svc.Update(ctx, actorOf(f.host), room.ID, in)
	require.NoError(t, err)
	second, err := f.svc.Update(ctx, actorOf(f.host), room.ID, in)
	require.NoError(t, err)

	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, first.RoomType, second.RoomType)
	assert.Equal(t, first.Floor, second.Floor)
	assert.Len(t, f.rec.Actions(models.AuditActionUpdate), 1)
}

func newPolicy(t *testing.T, db *gorm.DB) *authz.Policy {
	t.Helper()
	p := authz.NewPolicy(db, time.Minute)
	t.Cleanup(p.Close)
	return p
}
