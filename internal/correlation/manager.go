package correlation

import (
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentObserve/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentObserve/internal/shared/id"
	"go.uber.org/zap"
)

// Format selects the shape of a generated correlation id. Shapes carry no
// semantic meaning; callers choose based on log readability.
type Format int

const (
	// FormatFull is 128-bit random hex, globally unique.
	FormatFull Format = iota
	// FormatShort is 48-bit hex, human-scannable.
	FormatShort
	// FormatPrefixed is "<prefix>-<short>".
	FormatPrefixed
)

// Record is one correlation table entry.
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultTTL is how long a record stays visible after creation.
const DefaultTTL = 24 * time.Hour

// Options configures a Manager.
type Options struct {
	TTL    time.Duration // record lifetime; DefaultTTL when zero
	Prefix string        // prefix for FormatPrefixed ids; "agent" when empty
	Store  Store         // nil disables persistence
	Logger *logging.Logger
}

// Manager generates and caches correlation ids keyed by logical context
// strings ("task:T123"), letting independently-invoked call sites agree on
// one trace identity without direct communication.
//
// All table access is serialized behind one mutex; GetOrCreate is idempotent
// per key within the TTL window even under concurrent callers.
type Manager struct {
	mu     sync.Mutex
	table  map[string]Record
	dirty  bool
	ttl    time.Duration
	prefix string
	store  Store
	logger *logging.Logger

	flushStop chan struct{}
	flushDone chan struct{}
}

// NewManager creates a manager and, if a store is configured, loads the
// persisted table, purging entries already past TTL. A store load failure is
// logged and the manager starts empty; persistence failures never halt
// correlation lookups.
func NewManager(opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Prefix == "" {
		opts.Prefix = "agent"
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	m := &Manager{
		table:  make(map[string]Record),
		ttl:    opts.TTL,
		prefix: opts.Prefix,
		store:  opts.Store,
		logger: opts.Logger.Component("correlation"),
	}

	if m.store != nil {
		loaded, err := m.store.Load()
		if err != nil {
			m.logger.Warn("correlation store load failed, starting empty", zap.Error(err))
		} else {
			now := time.Now()
			for key, rec := range loaded {
				if now.Sub(rec.CreatedAt) < m.ttl {
					m.table[key] = rec
				}
			}
			if len(loaded) != len(m.table) {
				m.dirty = true
			}
		}
	}

	return m
}

// StartFlusher begins periodic persistence of the table. Snapshot cost grows
// with table size, so writes are batched on an interval instead of
// serializing the whole table on every mutation.
func (m *Manager) StartFlusher(interval time.Duration) {
	if m.store == nil || m.flushStop != nil {
		return
	}
	m.flushStop = make(chan struct{})
	m.flushDone = make(chan struct{})

	go func() {
		defer close(m.flushDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.persist()
			case <-m.flushStop:
				return
			}
		}
	}()
}

// Close stops the flusher and performs a final synchronous persist.
func (m *Manager) Close() {
	if m.flushStop != nil {
		close(m.flushStop)
		<-m.flushDone
		m.flushStop = nil
	}
	m.persist()
}

// Generate creates a new id in the requested format without storing it.
func (m *Manager) Generate(format Format) string {
	switch format {
	case FormatShort:
		return id.NewShortID()
	case FormatPrefixed:
		return fmt.Sprintf("%s-%s", m.prefix, id.NewShortID())
	default:
		return id.NewTraceID()
	}
}

// GetOrCreate returns the live id for key, generating and storing a new one
// on a miss or expired entry. A hit within TTL returns the existing id
// unchanged; reads do not refresh the record's lifetime.
func (m *Manager) GetOrCreate(key string, format ...Format) string {
	f := FormatFull
	if len(format) > 0 {
		f = format[0]
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.table[key]; ok {
		if time.Since(rec.CreatedAt) < m.ttl {
			return rec.ID
		}
		delete(m.table, key)
		m.dirty = true
	}

	newID := m.Generate(f)
	m.table[key] = Record{ID: newID, CreatedAt: time.Now()}
	m.dirty = true
	return newID
}

// Get returns the live id for key, or "" and false on a miss. An expired
// record behaves as a miss and is purged.
func (m *Manager) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.table[key]
	if !ok {
		return "", false
	}
	if time.Since(rec.CreatedAt) >= m.ttl {
		delete(m.table, key)
		m.dirty = true
		return "", false
	}
	return rec.ID, true
}

// Set binds key to an explicit id, refreshing its lifetime.
func (m *Manager) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table[key] = Record{ID: value, CreatedAt: time.Now()}
	m.dirty = true
}

// Propagate aliases childKey to parentKey's live id so both keys resolve
// identically. When the parent has no live record and generateIfMissing is
// set, a fresh id is created and bound to both keys. Returns the shared id
// and whether a binding happened.
func (m *Manager) Propagate(parentKey, childKey string, generateIfMissing bool) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if rec, ok := m.table[parentKey]; ok && now.Sub(rec.CreatedAt) < m.ttl {
		m.table[childKey] = Record{ID: rec.ID, CreatedAt: now}
		m.dirty = true
		return rec.ID, true
	}

	if !generateIfMissing {
		return "", false
	}

	shared := m.Generate(FormatFull)
	m.table[parentKey] = Record{ID: shared, CreatedAt: now}
	m.table[childKey] = Record{ID: shared, CreatedAt: now}
	m.dirty = true
	return shared, true
}

// Clear removes key's record.
func (m *Manager) Clear(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.table[key]; ok {
		delete(m.table, key)
		m.dirty = true
	}
}

// CleanExpired sweeps all records past TTL and returns the purge count.
// Called opportunistically, typically at session teardown.
func (m *Manager) CleanExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	purged := 0
	for key, rec := range m.table {
		if now.Sub(rec.CreatedAt) >= m.ttl {
			delete(m.table, key)
			purged++
		}
	}
	if purged > 0 {
		m.dirty = true
	}
	return purged
}

// Len returns the current number of live and expired-but-unswept records.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.table)
}

// persist writes a snapshot if the table changed since the last write.
// Failures are logged and swallowed: the manager keeps serving lookups from
// memory with reduced durability.
func (m *Manager) persist() {
	if m.store == nil {
		return
	}

	m.mu.Lock()
	if !m.dirty {
		m.mu.Unlock()
		return
	}
	snapshot := make(map[string]Record, len(m.table))
	for k, v := range m.table {
		snapshot[k] = v
	}
	m.dirty = false
	m.mu.Unlock()

	if err := m.store.Save(snapshot); err != nil {
		m.logger.Warn("correlation store save failed, continuing in memory",
			zap.Error(err),
			zap.Int("records", len(snapshot)),
		)
		m.mu.Lock()
		m.dirty = true
		m.mu.Unlock()
	}
}
