package state

import (
	"sync"
	"time"
)

type Phase int

const (
	BOOTING Phase = iota
	RUNNING
	STOPPED
)

func (p Phase) String() string {
	switch p {
	case RUNNING:
		return "running"
	case STOPPED:
		return "stopped"
	default:
		return "booting"
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// State is the published view of the frame loop for readers outside it.
type State struct {
	Phase            Phase     `json:"phase"`
	Category         string    `json:"category"`
	Kind             string    `json:"kind"`
	Source           string    `json:"source"`
	Index            int       `json:"index"`
	Count            int       `json:"count"`
	IntervalMinutes  int       `json:"interval_minutes"`
	Status           string    `json:"status"`
	UIVisible        bool      `json:"ui_visible"`
	PendingFetch     bool      `json:"pending_fetch"`
	HasImage         bool      `json:"has_image"`
	ChargerConnected bool      `json:"charger_connected"`
	LastFetch        time.Time `json:"last_fetch"`
	NextFetch        time.Time `json:"next_fetch"`
}

type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store {
	return &Store{state: State{Phase: BOOTING}}
}

func (store *Store) Snapshot() State {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.state
}

// Publish replaces the whole state.
func (store *Store) Publish(s State) {
	store.mu.Lock()
	store.state = s
	store.mu.Unlock()
}

func (store *Store) SetPhase(phase Phase) {
	store.mu.Lock()
	store.state.Phase = phase
	store.mu.Unlock()
}
