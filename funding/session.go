package funding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/heart2help/fundclient/pkg/clock"
)

// Panel identifies a role-gated view of the application.
type Panel int

const (
	PanelAdmin Panel = iota
	PanelDonor
)

func (p Panel) String() string {
	if p == PanelAdmin {
		return "admin"
	}
	return "donor"
}

// View is the local, rebuildable projection of contract state. It is a
// cache, not a source of truth: it is discarded and rebuilt wholesale after
// every confirmed shared-state mutation.
type View struct {
	Campaigns []Campaign
	Role      Role
	Account   common.Address
	Connected bool
	Pending   bool
	Err       error
}

// Session drives the resolver, registry and workflows from user actions and
// wallet account-change notifications, and owns the pending/error state the
// presentation layer consumes.
// ---------------------------------------------------------------------
type Session struct {
	wallet   Wallet
	resolver *Resolver
	registry *Registry
	service  *Service
	clock    Clock
	log      *slog.Logger

	mu      sync.Mutex
	view    View
	panel   Panel
	opened  bool
	skipped int
	busy    int // nested pending depth
	closed  bool

	events chan Event
}

// SessionOption configures the Session
type SessionOption func(*Session)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) SessionOption {
	return func(s *Session) { s.clock = c }
}

// WithSessionConfirmer injects the confirmation capability for destructive
// workflows.
func WithSessionConfirmer(c Confirmer) SessionOption {
	return func(s *Session) { s.service.confirmer = c }
}

// NewSession constructs a Session over the wallet and contract boundaries.
func NewSession(wallet Wallet, contract Contract, log *slog.Logger, opts ...SessionOption) *Session {
	s := &Session{
		wallet:   wallet,
		resolver: NewResolver(wallet, contract),
		registry: NewRegistry(contract, log),
		service:  NewService(contract, log),
		clock:    clock.SystemClock{},
		log:      log,
		events:   make(chan Event, 10),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View returns a snapshot of the current local view. The campaign slice is
// replaced, never mutated in place, so holding on to it is safe.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.view
	v.Pending = s.busy > 0
	return v
}

// Skipped returns how many records the last registry load dropped.
func (s *Session) Skipped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skipped
}

// Start launches the account-change watcher and returns the events channel
// and done channel.
//
// Shutdown pattern:
//  1. Cancel context to request shutdown: cancel()
//  2. Session stops producing events and closes the events channel
//  3. Wait for complete shutdown: <-done
func (s *Session) Start(ctx context.Context) (<-chan Event, <-chan struct{}) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.watch(ctx)
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.events)
	}()
	return s.events, done
}

// watch reacts to wallet account changes: any non-empty change forces a full
// view reload (simplest-correct; no partial-state reconciliation), an empty
// list resets to disconnected.
func (s *Session) watch(ctx context.Context) {
	changes, err := s.wallet.AccountChanges(ctx)
	if err != nil {
		s.emit(WatchStopped{Reason: err, At: s.clock.Now()})
		return
	}
	for {
		select {
		case <-ctx.Done():
			s.emit(WatchStopped{Reason: ctx.Err(), At: s.clock.Now()})
			return
		case accounts, ok := <-changes:
			if !ok {
				s.emit(WatchStopped{Reason: fmt.Errorf("account stream closed"), At: s.clock.Now()})
				return
			}
			if len(accounts) == 0 {
				s.reset()
				s.emit(SessionDisconnected{At: s.clock.Now()})
				continue
			}
			if err := s.Reload(ctx); err != nil {
				s.emit(ReloadFailed{Err: err, At: s.clock.Now()})
			}
		}
	}
}

// Connect prompts the wallet for authorization and adopts the resulting
// identity into the view.
func (s *Session) Connect(ctx context.Context) (Identity, error) {
	s.begin()
	defer s.end()

	id, err := s.resolver.Connect(ctx)
	if err != nil {
		s.fail(err)
		return Identity{}, err
	}
	s.adopt(id)
	s.emit(Connected{Account: id.Account, Admin: id.Admin, At: s.clock.Now()})
	return id, nil
}

// Resolve silently checks for an existing wallet session and adopts it.
// ok is false when no account is authorized yet.
func (s *Session) Resolve(ctx context.Context) (Identity, bool, error) {
	s.begin()
	defer s.end()

	id, ok, err := s.resolver.Resolve(ctx)
	if err != nil {
		s.fail(err)
		return Identity{}, false, err
	}
	if !ok {
		s.reset()
		return Identity{}, false, nil
	}
	s.adopt(id)
	return id, true, nil
}

// OpenPanel runs the mount sequence for a panel: resolve identity
// (prompting if no session exists), enforce the panel's role gate, then
// load the registry. An account that fails the gate gets ErrAccessDenied
// and no listing.
func (s *Session) OpenPanel(ctx context.Context, panel Panel) error {
	s.begin()
	defer s.end()

	id, ok, err := s.resolver.Resolve(ctx)
	if err != nil {
		s.fail(err)
		return err
	}
	if !ok {
		if id, err = s.resolver.Connect(ctx); err != nil {
			s.fail(err)
			return err
		}
	}
	s.adopt(id)

	switch panel {
	case PanelAdmin:
		if !id.Admin {
			err := fmt.Errorf("%w: %s is not the administrator", ErrAccessDenied, id.Account.Hex())
			s.fail(err)
			return err
		}
	case PanelDonor:
		registered, err := s.resolver.DonorRegistered(ctx, id.Account)
		if err != nil {
			s.fail(err)
			return err
		}
		s.mu.Lock()
		s.view.Role.RegisteredDonor = registered
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.panel = panel
	s.opened = true
	s.mu.Unlock()

	if err := s.refresh(ctx); err != nil {
		s.fail(err)
		return err
	}
	s.emit(Connected{Account: id.Account, Admin: id.Admin, At: s.clock.Now()})
	return nil
}

// Reload discards and rebuilds the whole local view: identity first, then
// the campaign listing. Idempotent; replaces the previous view atomically
// once enumeration completes.
func (s *Session) Reload(ctx context.Context) error {
	s.begin()
	defer s.end()

	id, ok, err := s.resolver.Resolve(ctx)
	if err != nil {
		s.fail(err)
		return err
	}
	if !ok {
		s.reset()
		return nil
	}
	s.adopt(id)

	s.mu.Lock()
	refetchDonor := s.opened && s.panel == PanelDonor
	s.mu.Unlock()
	if refetchDonor {
		registered, err := s.resolver.DonorRegistered(ctx, id.Account)
		if err != nil {
			s.fail(err)
			return err
		}
		s.mu.Lock()
		s.view.Role.RegisteredDonor = registered
		s.mu.Unlock()
	}

	if err := s.refresh(ctx); err != nil {
		s.fail(err)
		return err
	}
	return nil
}

// CreateCampaign runs the admin create workflow; the created campaign is
// shared state, so confirmation triggers a full reload.
func (s *Session) CreateCampaign(ctx context.Context, name, goalDisplay string, durationDays int) error {
	return s.runWorkflow(ctx, "create campaign", true, func(ctx context.Context, from common.Address) (Tx, error) {
		return s.service.CreateCampaign(ctx, from, name, goalDisplay, durationDays)
	})
}

// WithdrawFunds runs the admin withdraw workflow behind the confirmation
// gate; confirmation triggers a full reload.
func (s *Session) WithdrawFunds(ctx context.Context, id uint64) error {
	return s.runWorkflow(ctx, "withdraw funds", true, func(ctx context.Context, from common.Address) (Tx, error) {
		return s.service.WithdrawFunds(ctx, from, id)
	})
}

// Register runs the donor registration workflow. Registration mutates only
// the caller's own status, so the view is patched locally instead of
// reloaded.
func (s *Session) Register(ctx context.Context) error {
	err := s.runWorkflow(ctx, "register donor", false, func(ctx context.Context, from common.Address) (Tx, error) {
		return s.service.Register(ctx, from)
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.view.Role.RegisteredDonor = true
	s.mu.Unlock()
	return nil
}

// Donate runs the donor donation workflow; the donation changes shared
// collected totals, so confirmation triggers a full reload.
func (s *Session) Donate(ctx context.Context, id uint64, amountDisplay string) error {
	return s.runWorkflow(ctx, "donate", true, func(ctx context.Context, from common.Address) (Tx, error) {
		return s.service.Donate(ctx, from, id, amountDisplay)
	})
}

func (s *Session) runWorkflow(ctx context.Context, name string, reloadAfter bool, submit func(context.Context, common.Address) (Tx, error)) error {
	id, connected := s.resolver.Identity()
	if !connected {
		return ErrNotConnected
	}

	s.begin()
	defer s.end()

	tx, err := submit(ctx, id.Account)
	if err != nil {
		s.fail(err)
		s.emit(WorkflowFailed{Name: name, Err: err, At: s.clock.Now()})
		return err
	}
	s.emit(WorkflowCompleted{Name: name, TxHash: tx.Hash(), At: s.clock.Now()})

	if reloadAfter {
		return s.Reload(ctx)
	}
	return nil
}

// refresh replaces the campaign listing with a fresh full enumeration.
func (s *Session) refresh(ctx context.Context) error {
	listing, err := s.registry.LoadAll(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.view.Campaigns = listing.Campaigns
	s.view.Err = nil
	s.skipped = listing.Skipped
	s.mu.Unlock()
	s.emit(ViewReloaded{Campaigns: len(listing.Campaigns), Skipped: listing.Skipped, At: s.clock.Now()})
	return nil
}

func (s *Session) adopt(id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Account = id.Account
	s.view.Connected = true
	s.view.Role.Admin = id.Admin
	s.view.Err = nil
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = View{}
	s.skipped = 0
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Err = err
}

func (s *Session) begin() {
	s.mu.Lock()
	s.busy++
	s.mu.Unlock()
}

func (s *Session) end() {
	s.mu.Lock()
	s.busy--
	s.mu.Unlock()
}

// emit publishes an event without ever blocking a workflow: when nothing is
// draining the channel the event is dropped. Events are observability, not
// control flow.
func (s *Session) emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
	}
}
