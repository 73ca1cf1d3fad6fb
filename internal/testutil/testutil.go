// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"propertytrack/internal/config"
	"propertytrack/internal/database"
	"propertytrack/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB returns a migrated, private in-memory SQLite database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts an active user. The password hash is a placeholder.
func CreateUser(t *testing.T, db *gorm.DB, email string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{
		Email:        email,
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     string(role),
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func CreateProperty(t *testing.T, db *gorm.DB, ownerID uint, name string) *models.Property {
	t.Helper()
	p := &models.Property{
		OwnerID:      ownerID,
		Name:         name,
		PropertyType: models.PropertyHouse,
		Address:      models.Address{City: "Lisbon", Country: "PT"},
		IsActive:     true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func CreateRoom(t *testing.T, db *gorm.DB, propertyID uint, name string) *models.Room {
	t.Helper()
	r := &models.Room{
		PropertyID: propertyID,
		Name:       name,
		RoomType:   models.RoomBedroom,
		IsActive:   true,
	}
	require.NoError(t, db.Create(r).Error)
	return r
}

func CreateItem(t *testing.T, db *gorm.DB, room *models.Room, name string) *models.InventoryItem {
	t.Helper()
	it := &models.InventoryItem{
		RoomID:     room.ID,
		PropertyID: room.PropertyID,
		Name:       name,
		Category:   "linen",
		Quantity:   1,
		Status:     models.InventoryOK,
	}
	require.NoError(t, db.Create(it).Error)
	return it
}

// Config returns a valid configuration for tests. Secrets are fixed and
// distinct, bcrypt runs at its minimum cost.
func Config() *config.Config {
	cfg := &config.Config{
		Env:                 config.EnvTest,
		HTTPPort:            "0",
		DBDriver:            "sqlite",
		DatabaseDSN:         "file::memory:",
		JWTSecret:           "test-access-secret-0123456789abcdef",
		JWTExpiresIn:        "15m",
		JWTRefreshSecret:    "test-refresh-secret-0123456789abcdef",
		JWTRefreshExpiresIn: "7d",
		CORSOrigins:         "http://localhost:3000",
		LogLevel:            "error",
		LogFormat:           "text",
		BcryptCost:          4,
		AuditQueueSize:      64,
		AuditWorkers:        1,
		AuditMaxRetries:     1,
		OwnerCacheTTL:       "1m",
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}
