package lifecycle

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
	"github.com/zillah777/fixia.com.ar-sub001/internal/queue"
	"github.com/zillah777/fixia.com.ar-sub001/internal/repository"
)

// Store is the persistence collaborator the manager mutates matches
// through. Each mutation must be atomic and must re-check its
// state-machine precondition against the stored row, reporting
// repository.ErrInvalidState (or ErrAlreadyFinalized for Finalize) when
// the precondition no longer holds.
type Store interface {
	Get(ctx context.Context, id uint64) (*model.Match, *model.CompletionStatus, error)
	RequestCompletion(ctx context.Context, matchID, actorID uint64, comment string) error
	ConfirmCompletion(ctx context.Context, matchID uint64) error
	Finalize(ctx context.Context, matchID uint64, status model.MatchStatus) error
}

// Publisher delivers domain events to the notification pipeline.
// Publishing is best-effort from the manager's point of view: the
// state change has already committed, and the clients' periodic
// reconciliation covers a lost event.
type Publisher interface {
	PublishMatchEvent(ctx context.Context, ev queue.MatchEvent) error
}

// Manager serializes lifecycle operations per match and enforces the
// protocol rules the store cannot express: party membership, the
// requester/confirmer distinct-actor rule, and the closed set of
// terminal transitions.
type Manager struct {
	store  Store
	events Publisher

	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

// NewManager constructs a Manager. Both dependencies must be non-nil.
func NewManager(store Store, events Publisher) *Manager {
	if store == nil || events == nil {
		panic("nil dependency passed to NewManager")
	}
	return &Manager{
		store:  store,
		events: events,
		locks:  make(map[uint64]*sync.Mutex),
	}
}

// lockMatch returns the mutex serializing in-process writers of one
// match. Cross-process serialization is the store's job (row lock);
// this keeps the read-decide-write window of a single process honest.
func (mg *Manager) lockMatch(matchID uint64) *sync.Mutex {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	l, ok := mg.locks[matchID]
	if !ok {
		l = &sync.Mutex{}
		mg.locks[matchID] = l
	}
	return l
}

// forgetMatch drops the per-match mutex once the match is terminal, so
// the map does not grow for the life of the process. A straggler still
// holding the old mutex is harmless: the store re-checks every
// precondition under the row lock and a terminal row rejects all
// further writes.
func (mg *Manager) forgetMatch(matchID uint64) {
	mg.mu.Lock()
	delete(mg.locks, matchID)
	mg.mu.Unlock()
}

// Get returns the match and its completion status for one of its
// parties. Callers that are not a party receive ErrNotAuthorized.
func (mg *Manager) Get(ctx context.Context, matchID, actorID uint64) (*model.Match, *model.CompletionStatus, error) {
	m, cs, err := mg.store.Get(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	if !m.IsParty(actorID) {
		return nil, nil, repository.ErrNotAuthorized
	}
	return m, cs, nil
}

// RequestCompletion records that actorID considers the work delivered.
// The match stays active; the counterparty must confirm before reviews
// unlock. Requesting is rejected while another request is pending or
// once the match has left the active state.
func (mg *Manager) RequestCompletion(ctx context.Context, matchID, actorID uint64, comment string) (*model.CompletionStatus, error) {
	l := mg.lockMatch(matchID)
	l.Lock()
	defer l.Unlock()

	m, cs, err := mg.Get(ctx, matchID, actorID)
	if err != nil {
		return nil, err
	}
	if m.Status.Terminal() {
		mg.forgetMatch(matchID)
		return nil, repository.ErrAlreadyFinalized
	}
	if cs.RequestedBy != 0 {
		return nil, repository.ErrInvalidState
	}
	if err := mg.store.RequestCompletion(ctx, matchID, actorID, comment); err != nil {
		return nil, err
	}

	mg.publish(ctx, queue.MatchEvent{
		Type:       queue.EventCompletionRequested,
		MatchID:    matchID,
		ActorID:    actorID,
		Recipients: []uint64{m.Counterparty(actorID)},
		Comment:    comment,
	})

	_, cs, err = mg.store.Get(ctx, matchID)
	return cs, err
}

// ConfirmCompletion finalizes the bilateral protocol. Only the
// counterparty of the requester may confirm; self-confirmation is a
// protocol violation. On success the match is completed (terminal) and
// both parties' review gates open.
func (mg *Manager) ConfirmCompletion(ctx context.Context, matchID, actorID uint64, comment string) (*model.CompletionStatus, error) {
	l := mg.lockMatch(matchID)
	l.Lock()
	defer l.Unlock()

	m, cs, err := mg.Get(ctx, matchID, actorID)
	if err != nil {
		return nil, err
	}
	if m.Status.Terminal() {
		mg.forgetMatch(matchID)
		return nil, repository.ErrAlreadyFinalized
	}
	if cs.RequestedBy == 0 {
		return nil, repository.ErrInvalidState
	}
	if cs.RequestedBy == actorID {
		// Requester and confirmer must be distinct parties.
		return nil, repository.ErrInvalidState
	}
	if err := mg.store.ConfirmCompletion(ctx, matchID); err != nil {
		return nil, err
	}
	defer mg.forgetMatch(matchID)

	mg.publish(ctx, queue.MatchEvent{
		Type:       queue.EventCompletionConfirmed,
		MatchID:    matchID,
		ActorID:    actorID,
		Recipients: []uint64{m.ClientID, m.ProfessionalID},
		Status:     string(model.StatusCompleted),
		Comment:    comment,
	})

	_, cs, err = mg.store.Get(ctx, matchID)
	return cs, err
}

// UpdateStatus applies a terminal transition (disputed, cancelled or
// unsuccessful) requested by one of the parties. Completed is not a
// valid target here; it is only reachable through ConfirmCompletion.
func (mg *Manager) UpdateStatus(ctx context.Context, matchID, actorID uint64, status model.MatchStatus) (*model.Match, error) {
	if !status.Valid() || status == model.StatusActive || status == model.StatusCompleted {
		return nil, repository.ErrInvalidState
	}

	l := mg.lockMatch(matchID)
	l.Lock()
	defer l.Unlock()

	m, _, err := mg.Get(ctx, matchID, actorID)
	if err != nil {
		return nil, err
	}
	if m.Status.Terminal() {
		mg.forgetMatch(matchID)
		return nil, repository.ErrAlreadyFinalized
	}
	if !CanTransition(m.Status, status) {
		return nil, repository.ErrInvalidState
	}
	if err := mg.store.Finalize(ctx, matchID, status); err != nil {
		return nil, err
	}
	defer mg.forgetMatch(matchID)

	mg.publish(ctx, queue.MatchEvent{
		Type:       queue.EventStatusChanged,
		MatchID:    matchID,
		ActorID:    actorID,
		Recipients: []uint64{m.ClientID, m.ProfessionalID},
		Status:     string(status),
	})

	m, _, err = mg.store.Get(ctx, matchID)
	return m, err
}

// publish stamps and sends a domain event. Failures are logged, not
// returned: the state change is already durable and clients reconcile.
func (mg *Manager) publish(ctx context.Context, ev queue.MatchEvent) {
	ev.EventID = uuid.New().String()
	ev.OccurredAt = time.Now().UTC()
	if err := mg.events.PublishMatchEvent(ctx, ev); err != nil {
		log.Printf("lifecycle: publish %s for match %d failed: %v", ev.Type, ev.MatchID, err)
	}
}
