package pool

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// StaleReason names why a held record was judged reclaimable.
type StaleReason string

const (
	ReasonNotStale  StaleReason = ""
	ReasonExpired   StaleReason = "expired"
	ReasonDeadOwner StaleReason = "dead_owner"
	ReasonCorrupted StaleReason = "corrupted"
	ReasonForeign   StaleReason = "foreign_host"
)

// checkStale decides whether a held Record may be reclaimed. A same-host
// record is stale if either its owning process is dead (or its PID was
// recycled) or its TTL has expired; a record with no TTL is only ever
// reclaimed via the dead-owner path. Records written on a different host
// than this one is running on are reported stale (ReasonForeign) at
// once, since this module (unlike the distributed lock it is grounded
// on) never expects cross-host pool sharing — a foreign host in a record
// is itself a corruption signal.
func checkStale(r Record, host string, now time.Time) StaleReason {
	if r.Host != "" && r.Host != host {
		return ReasonForeign
	}

	expired := r.IsExpired(now)
	alive := isProcessAlive(r.PID, r.PIDStartNS)

	switch {
	case !alive:
		return ReasonDeadOwner
	case expired:
		return ReasonExpired
	default:
		return ReasonNotStale
	}
}

// isProcessAlive reports whether pid is running and, when startNS is
// known, whether it is still the same process instance rather than a
// recycled PID reused by an unrelated process.
func isProcessAlive(pid int, startNS int64) bool {
	if pid <= 0 {
		return false
	}
	exists, err := process.PidExists(int32(pid))
	if err != nil || !exists {
		return false
	}
	if startNS == 0 {
		return true
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	createMS, err := p.CreateTime()
	if err != nil {
		return true
	}
	return createMS*int64(time.Millisecond) == startNS
}

func currentProcessStartNS() int64 {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0
	}
	createMS, err := p.CreateTime()
	if err != nil {
		return 0
	}
	return createMS * int64(time.Millisecond)
}
