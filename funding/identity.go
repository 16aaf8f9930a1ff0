package funding

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// State is the wallet connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Role describes what the connected account is allowed to do.
type Role struct {
	Admin           bool
	RegisteredDonor bool
}

// Identity is a resolved wallet connection.
type Identity struct {
	Account common.Address
	Admin   bool
}

// Resolver derives the caller's identity and role from the wallet and the
// contract. Address equality is over common.Address values, so hex casing
// never matters.
type Resolver struct {
	wallet   Wallet
	contract Contract

	mu       sync.Mutex
	state    State
	identity Identity
}

func NewResolver(wallet Wallet, contract Contract) *Resolver {
	return &Resolver{wallet: wallet, contract: contract}
}

// State returns the current connection state.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Identity returns the last resolved identity; ok is false while
// disconnected.
func (r *Resolver) Identity() (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.identity, r.state == StateConnected
}

// Resolve checks for an existing authorized account without prompting the
// user. When none is authorized the resolver simply remains disconnected;
// that is not an error. Idempotent while the wallet state is unchanged.
func (r *Resolver) Resolve(ctx context.Context) (Identity, bool, error) {
	accounts, err := r.wallet.Accounts(ctx)
	if err != nil {
		r.disconnect()
		return Identity{}, false, &BoundaryError{Op: "listing authorized accounts", Err: err}
	}
	if len(accounts) == 0 {
		r.disconnect()
		return Identity{}, false, nil
	}
	id, err := r.adopt(ctx, accounts[0])
	if err != nil {
		return Identity{}, false, err
	}
	return id, true, nil
}

// Connect actively prompts the wallet for account authorization, then
// performs the same role derivation as Resolve.
func (r *Resolver) Connect(ctx context.Context) (Identity, error) {
	r.setState(StateConnecting)
	accounts, err := r.wallet.RequestAccounts(ctx)
	if err != nil {
		r.disconnect()
		return Identity{}, err
	}
	if len(accounts) == 0 {
		r.disconnect()
		return Identity{}, ErrUserRejected
	}
	return r.adopt(ctx, accounts[0])
}

// DonorRegistered reports whether the account completed the register
// workflow. Fetched lazily by whoever needs it; the admin flow never does.
func (r *Resolver) DonorRegistered(ctx context.Context, account common.Address) (bool, error) {
	registered, err := r.contract.IsDonorRegistered(ctx, account)
	if err != nil {
		return false, &BoundaryError{Op: "reading donor registration", Err: err}
	}
	return registered, nil
}

func (r *Resolver) adopt(ctx context.Context, account common.Address) (Identity, error) {
	admin, err := r.contract.Administrator(ctx)
	if err != nil {
		r.disconnect()
		return Identity{}, &BoundaryError{Op: "reading administrator account", Err: err}
	}
	id := Identity{Account: account, Admin: account == admin}
	r.mu.Lock()
	r.identity = id
	r.state = StateConnected
	r.mu.Unlock()
	return id, nil
}

func (r *Resolver) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *Resolver) disconnect() {
	r.mu.Lock()
	r.state = StateDisconnected
	r.identity = Identity{}
	r.mu.Unlock()
}
