package pool

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	pools := map[string]Descriptor{
		"testing": {Name: "testing", MaxSlots: 2, DefaultTTL: time.Minute},
	}
	m, err := NewManager(dir, pools, zerolog.Nop())
	require.NoError(t, err)
	return m
}

func TestAcquireUpToMaxSlots(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	p1, ok, err := m.Acquire(ctx, "testing", nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, p1)

	p2, ok, err := m.Acquire(ctx, "testing", nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, p2)

	_, ok, err = m.Acquire(ctx, "testing", nil)
	require.NoError(t, err)
	require.False(t, ok, "third acquire should fail, pool has only 2 slots")

	require.NoError(t, p1.Release())

	p3, ok, err := m.Acquire(ctx, "testing", nil)
	require.NoError(t, err)
	require.True(t, ok, "acquire should succeed after a release frees a slot")
	require.NotNil(t, p3)
}

func TestAcquireUnknownPool(t *testing.T) {
	m := newTestManager(t)
	permit, ok, err := m.Acquire(context.Background(), "does-not-exist", nil)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, permit)
}

func TestCanAcquireUnknownPoolIsFalse(t *testing.T) {
	m := newTestManager(t)
	require.False(t, m.CanAcquire("does-not-exist"))
}

func TestCanAcquireReflectsOccupancyWithoutGrantingAPermit(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.True(t, m.CanAcquire("testing"))

	p1, ok, err := m.Acquire(ctx, "testing", nil)
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = m.Acquire(ctx, "testing", nil)
	require.NoError(t, err)
	require.True(t, ok)

	require.False(t, m.CanAcquire("testing"), "both slots held, can_acquire must report false")

	require.NoError(t, p1.Release())
	require.True(t, m.CanAcquire("testing"), "a release must free a slot can_acquire can see")
}

func TestStaleRecordReclaimed(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	p1, ok, err := m.Acquire(ctx, "testing", nil)
	require.NoError(t, err)
	require.True(t, ok)
	p2, ok, err := m.Acquire(ctx, "testing", nil)
	require.NoError(t, err)
	require.True(t, ok)

	// Simulate the owning processes having died by rewriting both
	// records with an unreachable PID.
	for _, p := range []*Permit{p1, p2} {
		rec, err := m.readRecord("testing", p.id+".json")
		require.NoError(t, err)
		rec.PID = 999999
		rec.PIDStartNS = 0
		writeRecordForTest(t, p.path, rec)
	}

	p3, ok, err := m.Acquire(ctx, "testing", nil)
	require.NoError(t, err)
	require.True(t, ok, "sweep should have reclaimed dead-owner slots")
	require.NotNil(t, p3)
}

func writeRecordForTest(t *testing.T, path string, rec Record) {
	t.Helper()
	b, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o644))
}
