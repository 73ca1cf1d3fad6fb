package audit

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"propertytrack/internal/logging"
	"propertytrack/internal/models"
	"propertytrack/internal/testutil"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLog() *logrus.Entry {
	return logging.Component(logging.Discard(), "audit")
}

func TestWriterPersistsEntries(t *testing.T) {
	db := testutil.NewDB(t)
	w := NewWriter(db, quietLog(), Options{QueueSize: 16, Workers: 2, MaxRetries: 1})

	for i := 1; i <= 3; i++ {
		w.Record(Entry{
			UserID:     7,
			Action:     models.AuditActionCreate,
			EntityType: models.EntityRoom,
			EntityID:   uint(i),
			Details:    map[string]any{"name": "Room"},
			IP:         "10.0.0.1",
			UserAgent:  "test-agent",
		})
	}
	require.NoError(t, w.Close(context.Background()))

	var logs []models.AuditLog
	require.NoError(t, db.Order("entity_id").Find(&logs).Error)
	require.Len(t, logs, 3)
	assert.Equal(t, uint(7), logs[0].UserID)
	assert.Equal(t, "10.0.0.1", logs[0].IP)
	assert.Equal(t, "Room", logs[0].Details["name"])
	assert.False(t, logs[0].CreatedAt.IsZero())
}

func TestWriterRetriesThenSwallows(t *testing.T) {
	db := testutil.NewDB(t)
	w := NewWriter(db, quietLog(), Options{QueueSize: 4, Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond})

	var calls atomic.Int32
	w.persist = func(ctx context.Context, e Entry) error {
		calls.Add(1)
		return errors.New("db down")
	}

	w.Record(Entry{Action: models.AuditActionUpdate, EntityType: models.EntityProperty, EntityID: 1})
	require.NoError(t, w.Close(context.Background()))

	assert.Equal(t, int32(3), calls.Load())
}

func TestWriterRecoversAfterTransientFailure(t *testing.T) {
	db := testutil.NewDB(t)
	w := NewWriter(db, quietLog(), Options{QueueSize: 4, Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond})

	var calls atomic.Int32
	w.persist = func(ctx context.Context, e Entry) error {
		if calls.Add(1) == 1 {
			return errors.New("transient")
		}
		return w.write(ctx, e)
	}

	w.Record(Entry{Action: models.AuditActionDelete, EntityType: models.EntityRoom, EntityID: 9})
	require.NoError(t, w.Close(context.Background()))

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWriterDropsWhenQueueFull(t *testing.T) {
	db := testutil.NewDB(t)
	w := NewWriter(db, quietLog(), Options{QueueSize: 1, Workers: 1, MaxRetries: 1})

	release := make(chan struct{})
	var persisted atomic.Int32
	w.persist = func(ctx context.Context, e Entry) error {
		<-release
		persisted.Add(1)
		return nil
	}

	// First entry occupies the worker, second fills the queue, the rest drop.
	for i := 0; i < 10; i++ {
		w.Record(Entry{Action: models.AuditActionCreate, EntityID: uint(i)})
	}

	start := time.Now()
	w.Record(Entry{Action: models.AuditActionCreate})
	assert.Less(t, time.Since(start), 100*time.Millisecond, "Record must not block")

	close(release)
	require.NoError(t, w.Close(context.Background()))
	assert.LessOrEqual(t, persisted.Load(), int32(2))
}

func TestRecordAfterCloseDoesNotPanic(t *testing.T) {
	db := testutil.NewDB(t)
	w := NewWriter(db, quietLog(), Options{})
	require.NoError(t, w.Close(context.Background()))
	require.NoError(t, w.Close(context.Background()))

	assert.NotPanics(t, func() {
		w.Record(Entry{Action: models.AuditActionCreate})
	})
}

func TestWriterRecoversFromPanic(t *testing.T) {
	db := testutil.NewDB(t)
	w := NewWriter(db, quietLog(), Options{QueueSize: 4, Workers: 1, MaxRetries: 1})

	var calls atomic.Int32
	w.persist = func(ctx context.Context, e Entry) error {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		return nil
	}

	w.Record(Entry{EntityID: 1})
	w.Record(Entry{EntityID: 2})
	require.NoError(t, w.Close(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestCloseHonoursContext(t *testing.T) {
	db := testutil.NewDB(t)
	w := NewWriter(db, quietLog(), Options{QueueSize: 4, Workers: 1, MaxRetries: 1})

	release := make(chan struct{})
	defer close(release)
	w.persist = func(ctx context.Context, e Entry) error {
		<-release
		return nil
	}
	w.Record(Entry{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, w.Close(ctx))
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 255))
	assert.Equal(t, "abc", truncate("abcdef", 3))

	// "é" is two bytes; a cut at an odd offset would split it
	ua := strings.Repeat("é", 200)
	got := truncate(ua, 255)
	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, 254)

	assert.Equal(t, "", truncate("日本", 2))
}

func TestWriterStoresLongMultibyteUserAgent(t *testing.T) {
	db := testutil.NewDB(t)
	w := NewWriter(db, quietLog(), Options{QueueSize: 4, Workers: 1, MaxRetries: 1})

	w.Record(Entry{
		UserID:     1,
		Action:     models.AuditActionLogin,
		EntityType: models.EntityUser,
		EntityID:   1,
		UserAgent:  strings.Repeat("ü", 300),
	})
	require.NoError(t, w.Close(context.Background()))

	var row models.AuditLog
	require.NoError(t, db.First(&row).Error)
	assert.True(t, utf8.ValidString(row.UserAgent))
	assert.LessOrEqual(t, len(row.UserAgent), 255)
}
