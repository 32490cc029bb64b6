package engine

import (
	"fmt"
	"sync"

	"github.com/alispeech/streaming-gateway/pkg/apierr"
)

// Constructor builds one engine replica bound to device.
type Constructor func(device Device) (Engine, error)

// Pool holds one replica per resolved device and load-balances selections by
// least-active-count with a first-index tiebreak — the direct Go
// translation of MultiGPUASREngine's `_select_engine`/`_release_engine` pair,
// down to the tiebreak rule (first index at the minimum wins).
type Pool struct {
	mu       sync.Mutex
	replicas []Engine
	active   []int
}

// NewPool resolves a device spec, constructs one replica per device via
// construct, and fails startup if none succeed.
func NewPool(spec string, construct Constructor) (*Pool, []string, error) {
	devices, invalid := ParseDeviceSpec(spec)
	p := &Pool{}
	var lastErr error
	for _, d := range devices {
		e, err := construct(d)
		if err != nil {
			lastErr = err
			continue
		}
		p.replicas = append(p.replicas, e)
		p.active = append(p.active, 0)
	}
	if len(p.replicas) == 0 {
		if lastErr != nil {
			return nil, invalid, fmt.Errorf("engine pool: no replica constructed, last error: %w", lastErr)
		}
		return nil, invalid, fmt.Errorf("engine pool: no devices resolved from spec %q", spec)
	}
	return p, invalid, nil
}

// Select picks the replica with the smallest active count (ties broken by
// lowest index), increments its counter, and returns the pair the caller
// must Release on every exit path.
func (p *Pool) Select() (int, Engine, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.replicas) == 0 {
		return -1, nil, apierr.EngineNotLoaded("no engine replicas available")
	}
	minIdx := 0
	minVal := p.active[0]
	for i, v := range p.active {
		if v < minVal {
			minVal = v
			minIdx = i
		}
	}
	p.active[minIdx]++
	return minIdx, p.replicas[minIdx], nil
}

// Release decrements the replica's active count, floored at 0.
func (p *Pool) Release(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.active) {
		return
	}
	p.active[i]--
	if p.active[i] < 0 {
		p.active[i] = 0
	}
}

// ActiveCounts returns a snapshot of each replica's active count.
func (p *Pool) ActiveCounts() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, len(p.active))
	copy(out, p.active)
	return out
}

// Replicas returns the underlying engines, for health reporting.
func (p *Pool) Replicas() []Engine {
	return p.replicas
}

// Stats mirrors the original's get_engine_stats(): active counts alongside
// each replica's device and loaded capabilities.
type ReplicaStats struct {
	Device       Device   `json:"device"`
	ActiveCount  int      `json:"active_count"`
	Capabilities []string `json:"capabilities"`
}

func (p *Pool) Stats() []ReplicaStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ReplicaStats, len(p.replicas))
	for i, r := range p.replicas {
		out[i] = ReplicaStats{Device: r.Device(), ActiveCount: p.active[i], Capabilities: r.LoadedCapabilities()}
	}
	return out
}

// Loaded reports whether at least one replica has at least one loaded
// capability (§4.2 health definition).
func (p *Pool) Loaded() bool {
	for _, r := range p.replicas {
		if len(r.LoadedCapabilities()) > 0 {
			return true
		}
	}
	return false
}
