package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/live"
	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/metrics"
	"ecodefill-backend/internal/repository"
)

var (
	ErrBusy              = errors.New("a status change for this member is already in progress")
	ErrUnknownMember     = errors.New("member is not in the current roster")
	ErrInvalidStatus     = errors.New("invalid registration status")
	ErrInvalidTransition = errors.New("registration must be reset to pending before a new decision")
	ErrAlreadyStarted    = errors.New("roster already started")
	ErrClosed            = errors.New("roster is closed")
)

const (
	streamProfiles      = "profiles"
	streamRegistrations = "registrations"
)

// State is what the presentation layer sees of the roster.
type State struct {
	Members  []domain.MemberView `json:"members"`
	Loading  bool                `json:"loading"`
	Busy     []string            `json:"busy"`
	Degraded bool                `json:"degraded"`
	Version  uint64              `json:"version"`
}

func (s State) IsBusy(uid string) bool {
	i := sort.SearchStrings(s.Busy, uid)
	return i < len(s.Busy) && s.Busy[i] == uid
}

// Option configures a ViewModel.
type Option func(*ViewModel)

// WithStrictTransitions rejects direct approved/rejected flips; the record has
// to go back to pending first. Without it any target status is accepted.
func WithStrictTransitions() Option {
	return func(vm *ViewModel) { vm.strict = true }
}

// ViewModel keeps the member list in sync with the student profile stream and
// the registration stream, and applies status changes against the store.
type ViewModel struct {
	profiles      repository.ProfileRepository
	registrations repository.RegistrationRepository
	metrics       *metrics.Registry
	log           *slog.Logger
	now           func() time.Time
	strict        bool

	mu        sync.Mutex
	started   bool
	closed    bool
	subs      []repository.Subscription
	cachedP   []domain.Profile
	cachedR   []domain.RegistrationRecord
	members   []domain.MemberView
	loading   bool
	busy      map[string]struct{}
	failed    map[string]error
	version   uint64
	publisher *live.Publisher[State]
}

func NewViewModel(profiles repository.ProfileRepository, registrations repository.RegistrationRepository, m *metrics.Registry, opts ...Option) *ViewModel {
	vm := &ViewModel{
		profiles:      profiles,
		registrations: registrations,
		metrics:       m,
		log:           logger.WithComponent("roster"),
		now:           time.Now,
		loading:       true,
		busy:          make(map[string]struct{}),
		failed:        make(map[string]error),
		publisher:     live.NewPublisher[State](),
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Start opens both subscriptions. ctx bounds their lifetime; Close ends them
// explicitly.
func (vm *ViewModel) Start(ctx context.Context) error {
	vm.mu.Lock()
	switch {
	case vm.closed:
		vm.mu.Unlock()
		return ErrClosed
	case vm.started:
		vm.mu.Unlock()
		return ErrAlreadyStarted
	}
	vm.started = true
	vm.mu.Unlock()

	profileSub, err := vm.profiles.SubscribeByRole(ctx, domain.RoleStudent, vm.onProfiles)
	if err != nil {
		return fmt.Errorf("failed to subscribe to profiles: %w", err)
	}
	regSub, err := vm.registrations.Subscribe(ctx, vm.onRegistrations)
	if err != nil {
		profileSub.Unsubscribe()
		return fmt.Errorf("failed to subscribe to registrations: %w", err)
	}

	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		profileSub.Unsubscribe()
		regSub.Unsubscribe()
		return ErrClosed
	}
	vm.subs = []repository.Subscription{profileSub, regSub}
	vm.mu.Unlock()

	vm.log.Info("Roster subscriptions opened")
	return nil
}

// Close releases both subscriptions and drops all watchers. No stream callback
// runs after Close returns. It must not be called from a Watch callback.
func (vm *ViewModel) Close() {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return
	}
	vm.closed = true
	subs := vm.subs
	vm.subs = nil
	vm.cachedP, vm.cachedR, vm.members = nil, nil, nil
	vm.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
	vm.publisher.Reset()
	vm.log.Info("Roster closed")
}

// State returns the current roster state.
func (vm *ViewModel) State() State {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.stateLocked()
}

// Watch calls fn with the current state and then with every newer state until
// cancel is called. fn runs on the notifying goroutine and must not block.
func (vm *ViewModel) Watch(fn func(State)) (cancel func()) {
	return vm.publisher.Watch(func() (State, uint64) {
		st := vm.State()
		return st, st.Version
	}, fn)
}

func (vm *ViewModel) onProfiles(profiles []domain.Profile, err error) {
	vm.apply(streamProfiles, err, func() { vm.cachedP = profiles })
}

func (vm *ViewModel) onRegistrations(records []domain.RegistrationRecord, err error) {
	vm.apply(streamRegistrations, err, func() { vm.cachedR = records })
}

func (vm *ViewModel) apply(stream string, err error, replace func()) {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return
	}
	if _, failed := vm.failed[stream]; failed {
		vm.mu.Unlock()
		return
	}

	if err != nil {
		vm.failed[stream] = err
		vm.loading = false
		st := vm.commitLocked()
		vm.mu.Unlock()

		vm.log.Error("Stream failed; roster stops following it", "stream", stream, "error", err)
		vm.metrics.StreamErrorsTotal.WithLabelValues(stream).Inc()
		vm.publisher.Publish(st.Version, st)
		return
	}

	replace()
	vm.members = Merge(vm.cachedP, vm.cachedR)
	vm.loading = false
	st := vm.commitLocked()
	vm.mu.Unlock()

	counts := CountByStatus(st.Members)
	vm.metrics.RosterMerges.Inc()
	vm.metrics.RosterMembers.Set(float64(len(st.Members)))
	vm.metrics.RosterPending.Set(float64(counts[domain.RegistrationStatusPending]))
	logger.StreamEvent(stream, "merged", "members", len(st.Members), "version", st.Version)

	vm.publisher.Publish(st.Version, st)
}

// Outcome says what a status change wrote to the store.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota // record already had the status
	OutcomeCreated
	OutcomeUpdated
)

// SetStatus moves the member's registration to status. The record is read from
// the store first; an existing record has only its status updated, a missing
// one is created from the member's cached profile. Calls for a member that is
// already busy fail with ErrBusy. Nothing is applied locally: the roster changes
// when the registration stream reports the write.
func (vm *ViewModel) SetStatus(ctx context.Context, uid string, status domain.RegistrationStatus) error {
	_, err := vm.ChangeStatus(ctx, uid, status)
	return err
}

// ChangeStatus is SetStatus that also reports whether anything was written.
func (vm *ViewModel) ChangeStatus(ctx context.Context, uid string, status domain.RegistrationStatus) (Outcome, error) {
	if _, err := domain.ParseRegistrationStatus(string(status)); err != nil {
		return OutcomeUnchanged, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	member, err := vm.acquire(uid)
	if err != nil {
		return OutcomeUnchanged, err
	}
	vm.metrics.TransitionsInFlight.Inc()

	outcome, err := vm.transition(ctx, member, status)

	vm.release(uid)
	vm.metrics.TransitionsInFlight.Dec()

	if err != nil {
		vm.metrics.StatusTransitions.WithLabelValues(string(status), "error").Inc()
		vm.log.Warn("Status change failed", "uid", uid, "status", status, "error", err)
		return OutcomeUnchanged, err
	}
	vm.metrics.StatusTransitions.WithLabelValues(string(status), "ok").Inc()
	vm.log.Info("Status changed", "uid", uid, "status", status, "outcome", outcome)
	return outcome, nil
}

func (vm *ViewModel) acquire(uid string) (domain.MemberView, error) {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return domain.MemberView{}, ErrClosed
	}
	idx := slices.IndexFunc(vm.members, func(m domain.MemberView) bool { return m.UID == uid })
	if idx < 0 {
		vm.mu.Unlock()
		return domain.MemberView{}, ErrUnknownMember
	}
	if _, busy := vm.busy[uid]; busy {
		vm.mu.Unlock()
		return domain.MemberView{}, ErrBusy
	}
	vm.busy[uid] = struct{}{}
	member := vm.members[idx]
	st := vm.commitLocked()
	vm.mu.Unlock()

	vm.publisher.Publish(st.Version, st)
	return member, nil
}

func (vm *ViewModel) release(uid string) {
	vm.mu.Lock()
	delete(vm.busy, uid)
	if vm.closed {
		vm.mu.Unlock()
		return
	}
	st := vm.commitLocked()
	vm.mu.Unlock()

	vm.publisher.Publish(st.Version, st)
}

func (vm *ViewModel) transition(ctx context.Context, member domain.MemberView, status domain.RegistrationStatus) (Outcome, error) {
	rec, err := vm.registrations.GetByID(ctx, member.UID)
	if errors.Is(err, repository.ErrNotFound) {
		rec = domain.NewRegistrationRecord(member.Profile(), status, vm.now())
		if err := vm.registrations.Create(ctx, rec); err != nil {
			return OutcomeUnchanged, fmt.Errorf("failed to create registration: %w", err)
		}
		return OutcomeCreated, nil
	}
	if err != nil {
		return OutcomeUnchanged, fmt.Errorf("failed to read registration: %w", err)
	}

	if vm.strict && !rec.Status.CanTransitionTo(status) {
		return OutcomeUnchanged, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, rec.Status, status)
	}
	if rec.Status == status {
		return OutcomeUnchanged, nil
	}
	if err := vm.registrations.UpdateStatus(ctx, member.UID, status); err != nil {
		return OutcomeUnchanged, fmt.Errorf("failed to update registration status: %w", err)
	}
	return OutcomeUpdated, nil
}

func (vm *ViewModel) commitLocked() State {
	vm.version++
	return vm.stateLocked()
}

func (vm *ViewModel) stateLocked() State {
	busy := make([]string, 0, len(vm.busy))
	for uid := range vm.busy {
		busy = append(busy, uid)
	}
	sort.Strings(busy)
	members := slices.Clone(vm.members)
	if members == nil {
		members = []domain.MemberView{}
	}
	return State{
		Members:  members,
		Loading:  vm.loading,
		Busy:     busy,
		Degraded: len(vm.failed) > 0,
		Version:  vm.version,
	}
}
