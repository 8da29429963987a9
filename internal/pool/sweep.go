package pool

import (
	"os"
	"path/filepath"
	"time"
)

// EnvNoSweep disables the automatic stale-record sweep that otherwise
// runs at the start of every Acquire, useful for tests and for
// debugging a suspected sweep bug without it masking the symptom.
const EnvNoSweep = "HOOKCTL_NO_SWEEP"

// sweepLocked removes stale record files from one pool directory. The
// caller must already hold that pool's advisory lock.
func (m *Manager) sweepLocked(poolName string, _ Descriptor) error {
	if os.Getenv(EnvNoSweep) != "" {
		return nil
	}
	entries, err := os.ReadDir(m.poolDir(poolName))
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(m.poolDir(poolName), e.Name())
		rec, err := m.readRecord(poolName, e.Name())
		if err != nil {
			// Corrupted record: cannot attribute to a live owner, safe to
			// remove outright.
			_ = os.Remove(path)
			continue
		}
		if reason := checkStale(rec, m.host, now); reason != ReasonNotStale {
			m.log.Info().Str("pool", poolName).Str("permit", rec.ID).Str("reason", string(reason)).Msg("pruning stale permit")
			_ = os.Remove(path)
		}
	}
	return nil
}

// Sweep runs a stale-record sweep against every known pool, independent
// of any Acquire call. Exposed for "hookctl pool sweep".
func (m *Manager) Sweep() (int, error) {
	pruned := 0
	for name := range m.pools {
		before, err := m.countEntriesLocked(name)
		if err != nil {
			return pruned, err
		}
		if err := m.withPoolLock(name, func() error {
			return m.sweepLocked(name, m.pools[name])
		}); err != nil {
			return pruned, err
		}
		after, err := m.countEntriesLocked(name)
		if err != nil {
			return pruned, err
		}
		pruned += before - after
	}
	return pruned, nil
}

func (m *Manager) countEntriesLocked(poolName string) (int, error) {
	if err := os.MkdirAll(m.poolDir(poolName), 0o755); err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(m.poolDir(poolName))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			n++
		}
	}
	return n, nil
}
