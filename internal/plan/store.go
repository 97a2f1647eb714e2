package plan

import (
	"sync"

	"github.com/okabe-dev/opsbridge/internal/models"
)

// Store holds pending plans between creation and execute/cancel. There is
// no persisted status: presence in the store is the only state, approve
// is a stateless acknowledgment, and execute/cancel pop the plan. Plans
// do not survive a process restart.
//
// NATS delivers handler callbacks on library goroutines, so access is
// mutex-guarded. A monotonic sequence number assigned at Put orders
// plans by creation; "most recent" selection uses it, never the id text.
type Store struct {
	mu    sync.Mutex
	plans map[string]*models.ExecutionPlan
	seq   uint64
}

func NewStore() *Store {
	return &Store{plans: make(map[string]*models.ExecutionPlan)}
}

// Put inserts the plan and assigns its creation sequence number.
func (s *Store) Put(p *models.ExecutionPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	p.Seq = s.seq
	s.plans[p.ID] = p
}

// Get returns the plan without removing it. Used by approve.
func (s *Store) Get(id string) (*models.ExecutionPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	return p, ok
}

// Latest returns the most recently created plan still in the store.
func (s *Store) Latest() (*models.ExecutionPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.ExecutionPlan
	for _, p := range s.plans {
		if latest == nil || p.Seq > latest.Seq {
			latest = p
		}
	}
	return latest, latest != nil
}

// Remove pops the plan from the store. Used by execute and cancel; any
// repeat operation on the same id afterwards sees plan_not_found.
func (s *Store) Remove(id string) (*models.ExecutionPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if ok {
		delete(s.plans, id)
	}
	return p, ok
}

// Len reports how many plans are pending.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.plans)
}
