package store

import (
	"sync"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Phase is the dashboard lifecycle state.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

// View is everything a client needs to render the dashboard.
type View struct {
	Phase   Phase                `json:"phase"`
	Loading bool                 `json:"loading"`
	Error   string               `json:"error,omitempty"`
	Seq     uint64               `json:"seq"` // latest issued cycle
	State   weather.WeatherState `json:"state"`
}

// InitialView is the view before any fetch cycle has run.
func InitialView() View {
	return View{
		Phase: PhaseIdle,
		State: weather.EmptyState(),
	}
}

// Action is an event applied to the View by Reduce.
type Action interface {
	isAction()
}

// CycleStarted begins fetch cycle Seq. Notice, if set, is shown as the error
// message for the whole cycle (used for the location fallback).
type CycleStarted struct {
	Seq    uint64
	Notice string
}

// CycleSucceeded replaces the weather state wholesale.
type CycleSucceeded struct {
	Seq   uint64
	State weather.WeatherState
}

// CycleFailed surfaces Message and keeps the previous weather state.
type CycleFailed struct {
	Seq     uint64
	Message string
}

// InputRejected reports invalid user input without starting a cycle.
type InputRejected struct {
	Message string
}

func (CycleStarted) isAction()   {}
func (CycleSucceeded) isAction() {}
func (CycleFailed) isAction()    {}
func (InputRejected) isAction()  {}

// Reduce applies a to v and reports whether it changed anything. Completions
// of any cycle other than the latest started one are stale and ignored.
func Reduce(v View, a Action) (View, bool) {
	switch a := a.(type) {
	case CycleStarted:
		if a.Seq <= v.Seq {
			return v, false
		}
		v.Seq = a.Seq
		v.Phase = PhaseLoading
		v.Loading = true
		v.Error = a.Notice
		return v, true

	case CycleSucceeded:
		if a.Seq != v.Seq || !v.Loading {
			return v, false
		}
		v.Phase = PhaseReady
		v.Loading = false
		v.State = a.State
		return v, true

	case CycleFailed:
		if a.Seq != v.Seq || !v.Loading {
			return v, false
		}
		v.Phase = PhaseError
		v.Loading = false
		v.Error = a.Message
		return v, true

	case InputRejected:
		v.Error = a.Message
		if !v.Loading {
			v.Phase = PhaseError
		}
		return v, true
	}
	return v, false
}

// Store owns the View. It is the only place the View is mutated; readers get copies.
type Store struct {
	mu     sync.RWMutex
	view   View
	issued uint64
}

// New creates a Store holding the initial view.
func New() *Store {
	return &Store{view: InitialView()}
}

// Begin allocates the next cycle number and moves the view to loading.
func (s *Store) Begin(notice string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.issued++
	s.view, _ = Reduce(s.view, CycleStarted{Seq: s.issued, Notice: notice})
	return s.issued
}

// Dispatch applies a to the view and reports whether it was applied.
func (s *Store) Dispatch(a Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, applied := Reduce(s.view, a)
	s.view = next
	return applied
}

// View returns a copy of the current view.
func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}
