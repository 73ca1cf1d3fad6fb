package audit

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"propertytrack/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Entry is one mutation to record.
type Entry struct {
	UserID     uint
	Action     models.AuditAction
	EntityType string
	EntityID   uint
	Details    map[string]any
	IP         string
	UserAgent  string
	RequestID  string
}

type Options struct {
	QueueSize  int
	Workers    int
	MaxRetries int
	// RetryDelay is multiplied by the attempt number between retries.
	RetryDelay time.Duration
}

// Writer persists audit entries in the background. Record never blocks and
// never reports failure to the caller: a full queue drops the entry, and a
// write that still fails after MaxRetries attempts is logged and discarded.
type Writer struct {
	db   *gorm.DB
	log  *logrus.Entry
	opts Options

	queue chan Entry
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	// hook for tests; nil in production
	persist func(ctx context.Context, e Entry) error
}

func NewWriter(db *gorm.DB, log *logrus.Entry, opts Options) *Writer {
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 100 * time.Millisecond
	}

	w := &Writer{
		db:    db,
		log:   log,
		opts:  opts,
		queue: make(chan Entry, opts.QueueSize),
	}
	w.persist = w.write

	w.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go w.run(i)
	}
	return w
}

// Record enqueues e for persistence.
func (w *Writer) Record(e Entry) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.dropped(e, "writer closed")
		return
	}

	select {
	case w.queue <- e:
	default:
		w.dropped(e, "queue full")
	}
}

// Close stops intake and waits for queued entries to be written or for ctx
// to expire, whichever comes first.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit writer drain: %w", ctx.Err())
	}
}

func (w *Writer) run(id int) {
	defer w.wg.Done()
	for e := range w.queue {
		w.handle(id, e)
	}
}

func (w *Writer) handle(worker int, e Entry) {
	defer func() {
		if r := recover(); r != nil {
			w.log.WithFields(logrus.Fields{
				"worker": worker,
				"panic":  r,
				"action": e.Action,
			}).Error("audit worker recovered from panic")
		}
	}()

	var err error
	for attempt := 1; attempt <= w.opts.MaxRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = w.persist(ctx, e)
		cancel()
		if err == nil {
			return
		}
		if attempt < w.opts.MaxRetries {
			time.Sleep(time.Duration(attempt) * w.opts.RetryDelay)
		}
	}

	w.log.WithError(err).WithFields(logrus.Fields{
		"action":      e.Action,
		"entity_type": e.EntityType,
		"entity_id":   e.EntityID,
		"user_id":     e.UserID,
		"attempts":    w.opts.MaxRetries,
	}).Error("audit log could not be written")
}

func (w *Writer) dropped(e Entry, reason string) {
	w.log.WithFields(logrus.Fields{
		"reason":      reason,
		"action":      e.Action,
		"entity_type": e.EntityType,
		"entity_id":   e.EntityID,
	}).Warn("audit entry dropped")
}

func (w *Writer) write(ctx context.Context, e Entry) error {
	row := models.AuditLog{
		UserID:     e.UserID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    e.Details,
		IP:         e.IP,
		UserAgent:  truncate(e.UserAgent, 255),
		RequestID:  e.RequestID,
	}
	if err := w.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("inserting audit log: %w", err)
	}
	return nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
