package kyc

import (
	"log/slog"
	"sync"

	"github.com/zolani/khusela/internal/verify"
)

// Store keeps the in-memory onboarding machines, one per user. Nothing here
// survives a restart: an onboarding attempt is session-scoped and durable
// persistence belongs to the provider's Persist call.
type Store struct {
	mu       sync.Mutex
	machines map[string]*Machine

	verifier verify.Verifier
	logger   *slog.Logger
}

func NewStore(verifier verify.Verifier, logger *slog.Logger) *Store {
	return &Store{
		machines: make(map[string]*Machine),
		verifier: verifier,
		logger:   logger,
	}
}

// Enter returns the user's onboarding machine, creating a fresh one with an
// empty record on first entry. onComplete is only wired for a new machine.
func (st *Store) Enter(userID string, onComplete CompletionFunc) *Machine {
	st.mu.Lock()
	defer st.mu.Unlock()

	if machine, ok := st.machines[userID]; ok {
		return machine
	}

	machine := NewMachine(NewSession(), st.verifier, NewMediaDevice(), st.logger, onComplete)
	st.machines[userID] = machine
	return machine
}

// Get returns the user's machine if an attempt is underway.
func (st *Store) Get(userID string) (*Machine, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	machine, ok := st.machines[userID]
	return machine, ok
}

// Discard drops the user's machine entirely, used after completion or
// cancellation of the onboarding stage.
func (st *Store) Discard(userID string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	delete(st.machines, userID)
}
