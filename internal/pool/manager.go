package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
)

// Manager hands out Permits against a fixed set of named pools, backed
// by a directory of per-pool record files plus one pool-wide advisory
// lock file that serializes acquire attempts.
type Manager struct {
	dir   string
	pools map[string]Descriptor
	host  string
	log   zerolog.Logger
}

// NewManager constructs a Manager rooted at dir, creating it if absent.
func NewManager(dir string, pools map[string]Descriptor, log zerolog.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("pool: creating lock dir %s: %w", dir, err)
	}
	host, _ := os.Hostname()
	return &Manager{dir: dir, pools: pools, host: host, log: log}, nil
}

// Permit represents one held slot in a pool. Callers must call Release
// exactly once, typically via defer.
type Permit struct {
	mgr  *Manager
	pool string
	id   string
	path string
}

func (m *Manager) poolDir(name string) string { return filepath.Join(m.dir, name) }

// lockFilePath is the pool-wide advisory lock, a sibling of every pool's
// record directory rather than nested inside one.
func (m *Manager) lockFilePath(name string) string {
	return filepath.Join(m.dir, "."+name+"_global.lock")
}
func (m *Manager) recordPath(name, id string) string {
	return filepath.Join(m.poolDir(name), id+".json")
}

// CanAcquire is an advisory, non-mutating check: it reports whether a
// slot currently looks free without granting a permit. An unknown pool
// name always reports false.
func (m *Manager) CanAcquire(poolName string) bool {
	desc, ok := m.pools[poolName]
	if !ok {
		return false
	}
	if err := os.MkdirAll(m.poolDir(poolName), 0o755); err != nil {
		return false
	}

	fl := flock.New(m.lockFilePath(poolName))
	locked, err := fl.TryLockContext(context.Background(), 20*time.Millisecond)
	if err != nil || !locked {
		return false
	}
	defer fl.Unlock()

	live, err := m.countLiveLocked(poolName)
	if err != nil {
		return false
	}
	return live < desc.MaxSlots
}

// Acquire attempts a single, non-blocking acquire against the named
// pool, returning (nil, false, nil) if every slot is currently held by
// a live owner, or if poolName names no configured pool.
func (m *Manager) Acquire(ctx context.Context, poolName string, metadata map[string]string) (*Permit, bool, error) {
	if err := validateName(poolName); err != nil {
		return nil, false, err
	}
	desc, ok := m.pools[poolName]
	if !ok {
		// Unknown pool name: "not acquired" without blocking, never an error.
		return nil, false, nil
	}
	if err := os.MkdirAll(m.poolDir(poolName), 0o755); err != nil {
		return nil, false, fmt.Errorf("pool: creating pool dir: %w", err)
	}

	fl := flock.New(m.lockFilePath(poolName))
	locked, err := fl.TryLockContext(ctx, 20*time.Millisecond)
	if err != nil {
		return nil, false, fmt.Errorf("pool: acquiring pool-wide lock: %w", err)
	}
	if !locked {
		return nil, false, nil
	}
	defer fl.Unlock()

	if err := m.sweepLocked(poolName, desc); err != nil {
		m.log.Warn().Err(err).Str("pool", poolName).Msg("stale sweep during acquire failed")
	}

	live, err := m.countLiveLocked(poolName)
	if err != nil {
		return nil, false, err
	}
	if live >= desc.MaxSlots {
		return nil, false, nil
	}

	id := newLockID()
	rec := Record{
		Version:    CurrentRecordVersion,
		Pool:       poolName,
		ID:         id,
		Owner:      os.Getenv("USER"),
		Host:       m.host,
		PID:        os.Getpid(),
		PIDStartNS: currentProcessStartNS(),
		Timestamp:  time.Now().UTC().Unix(),
		TTLSec:     int(desc.DefaultTTL / time.Second),
		Metadata:   metadata,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, false, fmt.Errorf("pool: encoding record: %w", err)
	}
	path := m.recordPath(poolName, id)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return nil, false, fmt.Errorf("pool: writing record: %w", err)
	}

	m.log.Debug().Str("pool", poolName).Str("permit", id).Int("live", live+1).Int("max", desc.MaxSlots).Msg("permit acquired")
	return &Permit{mgr: m, pool: poolName, id: id, path: path}, true, nil
}

// AcquireWait polls Acquire with jittered backoff until it succeeds,
// ctx is done, or the deadline implied by wait elapses.
func (m *Manager) AcquireWait(ctx context.Context, poolName string, metadata map[string]string, wait time.Duration) (*Permit, bool, error) {
	deadline := time.Now().Add(wait)
	for attempt := 0; ; attempt++ {
		permit, ok, err := m.Acquire(ctx, poolName, metadata)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return permit, true, nil
		}
		if time.Now().After(deadline) {
			return nil, false, nil
		}
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(backoffInterval(attempt)):
		}
	}
}

var backoffMultipliers = [...]int{1, 2, 4, 8, 16, 32, 64}

func backoffInterval(attempt int) time.Duration {
	const base = 50 * time.Millisecond
	const maxInterval = 2 * time.Second
	idx := attempt
	if idx >= len(backoffMultipliers) {
		idx = len(backoffMultipliers) - 1
	}
	d := base * time.Duration(backoffMultipliers[idx])
	if d > maxInterval {
		d = maxInterval
	}
	jitter := 0.75 + rand.Float64()*0.5
	return time.Duration(float64(d) * jitter)
}

// Release deletes the permit's record file, freeing its slot.
func (p *Permit) Release() error {
	if p == nil {
		return nil
	}
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("pool: releasing permit %s: %w", p.id, err)
	}
	p.mgr.log.Debug().Str("pool", p.pool).Str("permit", p.id).Msg("permit released")
	return nil
}

func (m *Manager) countLiveLocked(poolName string) (int, error) {
	entries, err := os.ReadDir(m.poolDir(poolName))
	if err != nil {
		return 0, fmt.Errorf("pool: reading pool dir: %w", err)
	}
	now := time.Now().UTC()
	live := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		rec, err := m.readRecord(poolName, e.Name())
		if err != nil {
			continue // corrupted entries don't count as live; sweep will clear them
		}
		if checkStale(rec, m.host, now) == ReasonNotStale {
			live++
		}
	}
	return live, nil
}

// withPoolLock runs fn while holding the named pool's advisory lock.
func (m *Manager) withPoolLock(poolName string, fn func() error) error {
	if err := os.MkdirAll(m.poolDir(poolName), 0o755); err != nil {
		return err
	}
	fl := flock.New(m.lockFilePath(poolName))
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("pool: acquiring pool-wide lock: %w", err)
	}
	defer fl.Unlock()
	return fn()
}

func (m *Manager) readRecord(poolName, fileName string) (Record, error) {
	b, err := os.ReadFile(filepath.Join(m.poolDir(poolName), fileName))
	if err != nil {
		return Record{}, err
	}
	return decodeRecord(b)
}

// Status reports current occupancy for every known pool.
type Status struct {
	Pool     string
	MaxSlots int
	Live     int
}

func (m *Manager) Status() ([]Status, error) {
	out := make([]Status, 0, len(m.pools))
	for name, desc := range m.pools {
		fl := flock.New(m.lockFilePath(name))
		if err := os.MkdirAll(m.poolDir(name), 0o755); err != nil {
			return nil, err
		}
		_ = fl.Lock()
		live, err := m.countLiveLocked(name)
		fl.Unlock()
		if err != nil {
			return nil, err
		}
		out = append(out, Status{Pool: name, MaxSlots: desc.MaxSlots, Live: live})
	}
	return out, nil
}
