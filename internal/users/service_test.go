package users

import (
	"context"
	"testing"

	"propertytrack/internal/apperr"
	"propertytrack/internal/audit/audittest"
	"propertytrack/internal/auth"
	"propertytrack/internal/logging"
	"propertytrack/internal/models"
	"propertytrack/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *audittest.Recorder, *models.User) {
	t.Helper()
	db := testutil.NewDB(t)
	rec := &audittest.Recorder{}
	admin := testutil.CreateUser(t, db, "admin@example.com", models.RoleAdmin)
	return NewService(db, rec, 4, logging.Component(logging.Discard(), "users")), rec, admin
}

func adminActor(u *models.User) auth.Actor {
	return auth.Actor{Identity: auth.Identity{UserID: u.ID, Role: models.RoleAdmin}}
}

func strp(s string) *string { return &s }

func TestCreateAnyRole(t *testing.T) {
	svc, rec, admin := newService(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, adminActor(admin), CreateInput{
		Email: "New.Admin@Example.com", Password: "secret123", FirstName: "N", LastName: "A", Role: models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "new.admin@example.com", u.Email)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.True(t, auth.CheckPassword("secret123", u.PasswordHash))
	assert.Len(t, rec.Actions(models.AuditActionCreate), 1)

	_, err = svc.Create(ctx, adminActor(admin), CreateInput{
		Email: "new.admin@example.com", Password: "secret123", FirstName: "N", LastName: "A", Role: models.RoleHost,
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.Create(ctx, adminActor(admin), CreateInput{
		Email: "x@example.com", Password: "secret123", FirstName: "N", LastName: "A",
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestUpdateUser(t *testing.T) {
	svc, rec, admin := newService(t)
	ctx := context.Background()
	target := testutil.CreateUser(t, svc.db, "host@example.com", models.RoleHost)

	role := models.RoleEmployee
	u, err := svc.Update(ctx, adminActor(admin), target.ID, UpdateInput{Role: &role, Phone: strp("555"), Password: strp("another1")})
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, u.Role)
	assert.Equal(t, "555", u.Phone)
	assert.True(t, auth.CheckPassword("another1", u.PasswordHash))

	entries := rec.Actions(models.AuditActionUpdate)
	require.Len(t, entries, 1)
	changes := entries[0].Details["changes"].(map[string]any)
	assert.Equal(t, "changed", changes["password"])
	assert.Contains(t, changes, "role")

	testutil.CreateUser(t, svc.db, "taken@example.com", models.RoleHost)
	_, err = svc.Update(ctx, adminActor(admin), target.ID, UpdateInput{Email: strp("TAKEN@example.com")})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestAdminCannotDeactivateSelf(t *testing.T) {
	svc, _, admin := newService(t)
	ctx := context.Background()

	assert.True(t, apperr.IsKind(svc.Delete(ctx, adminActor(admin), admin.ID), apperr.KindConflict))

	no := false
	_, err := svc.Update(ctx, adminActor(admin), admin.ID, UpdateInput{IsActive: &no})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	host := models.RoleHost
	_, err = svc.Update(ctx, adminActor(admin), admin.ID, UpdateInput{Role: &host})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestDeleteIsSoft(t *testing.T) {
	svc, rec, admin := newService(t)
	ctx := context.Background()
	target := testutil.CreateUser(t, svc.db, "leaving@example.com", models.RoleEmployee)

	require.NoError(t, svc.Delete(ctx, adminActor(admin), target.ID))
	// second delete is a no-op
	require.NoError(t, svc.Delete(ctx, adminActor(admin), target.ID))

	u, err := svc.Get(ctx, target.ID)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	assert.Len(t, rec.Actions(models.AuditActionDeactivate), 1)

	active, err := svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := svc.List(ctx, ListFilter{IncludeInactive: true, Search: "LEAVING"})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = svc.Get(ctx, 4040)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
