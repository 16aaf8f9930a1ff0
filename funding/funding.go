// Package funding implements the client-side view of the crowdfunding
// contract: identity and role resolution, campaign enumeration, and the
// role-gated transaction workflows that mutate on-chain state.
package funding

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for failure cases
var (
	ErrWalletUnavailable = errors.New("wallet unavailable")
	ErrUserRejected      = errors.New("authorization rejected")
	ErrAccessDenied      = errors.New("access denied")
	ErrNotConfirmed      = errors.New("withdrawal not confirmed")
	ErrNotConnected      = errors.New("no connected account")
)

// ValidationError reports a client-side input check failure, scoped to one
// field. It aborts a workflow before anything reaches the boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// BoundaryError wraps a wallet or contract failure. The underlying message
// is surfaced verbatim and the workflow is never retried.
type BoundaryError struct {
	Op  string
	Err error
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *BoundaryError) Unwrap() error {
	return e.Err
}

// Wallet is the provider boundary
// -------------------------------
type Wallet interface {
	// Accounts lists already-authorized accounts without prompting.
	Accounts(ctx context.Context) ([]common.Address, error)
	// RequestAccounts prompts the user for account authorization.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// AccountChanges streams the authorized account list whenever it
	// changes. The channel closes when the stream ends.
	AccountChanges(ctx context.Context) (<-chan []common.Address, error)
}

// CampaignRecord is one campaign row as stored by the contract
// ------------------------------------------------------------
type CampaignRecord struct {
	// Name is either a string or a 32-byte zero-padded buffer, depending
	// on the contract revision that wrote the record.
	Name      any
	Goal      *big.Int
	Collected *big.Int
	Deadline  *big.Int
}

// Tx is the handle of a submitted state-changing transaction
type Tx interface {
	Hash() common.Hash
	// Wait blocks until the transaction is confirmed, failing if it
	// reverted. There is no local timeout and no mid-flight cancellation
	// of the on-chain transaction itself.
	Wait(ctx context.Context) error
}

// Contract is the public call/transaction surface of the crowdfunding
// contract, bound to the connected wallet for signing.
type Contract interface {
	Administrator(ctx context.Context) (common.Address, error)
	CampaignCount(ctx context.Context) (uint64, error)
	CampaignAt(ctx context.Context, index uint64) (CampaignRecord, error)
	IsDonorRegistered(ctx context.Context, account common.Address) (bool, error)

	CreateCampaign(ctx context.Context, from common.Address, name string, goal *big.Int, durationDays uint64) (Tx, error)
	WithdrawFunds(ctx context.Context, from common.Address, id uint64) (Tx, error)
	Register(ctx context.Context, from common.Address) (Tx, error)
	// Donate attaches value to the transaction; the paid value is the
	// donation amount, not a call argument.
	Donate(ctx context.Context, from common.Address, id uint64, value *big.Int) (Tx, error)
}

// Confirmer approves destructive, irreversible actions before submission.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(prompt string) bool

func (f ConfirmerFunc) Confirm(prompt string) bool { return f(prompt) }

// Clock abstracts time for production and testing
type Clock interface {
	Now() time.Time
}

// Event represents a session lifecycle event
// ------------------------------------------
type Event any

type Connected struct {
	Account common.Address
	Admin   bool
	At      time.Time
}

type SessionDisconnected struct {
	At time.Time
}

type ViewReloaded struct {
	Campaigns int
	Skipped   int
	At        time.Time
}

type ReloadFailed struct {
	Err error
	At  time.Time
}

type WorkflowCompleted struct {
	Name   string
	TxHash common.Hash
	At     time.Time
}

type WorkflowFailed struct {
	Name string
	Err  error
	At   time.Time
}

type WatchStopped struct {
	Reason error // why the account-change watcher ended (ctx.Err(), stream close)
	At     time.Time
}
