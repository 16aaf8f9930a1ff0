package funding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/heart2help/fundclient/pkg/ethunit"
)

// Service carries the state-changing workflows. Every workflow follows the
// same sequence: validate, submit, await confirmation. A validation failure
// aborts before anything reaches the boundary; a boundary failure surfaces
// verbatim and is never retried. Role gating happens at the session, before
// an action is offered.
type Service struct {
	contract  Contract
	confirmer Confirmer
	log       *slog.Logger
}

// ServiceOption configures the Service
type ServiceOption func(*Service)

// WithConfirmer injects the capability that approves destructive actions.
// Without one, withdrawals are always refused.
func WithConfirmer(c Confirmer) ServiceOption {
	return func(s *Service) { s.confirmer = c }
}

func NewService(contract Contract, log *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		contract:  contract,
		confirmer: ConfirmerFunc(func(string) bool { return false }),
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCampaign validates the admin's input, converts the goal to wei and
// submits the creation transaction.
func (s *Service) CreateCampaign(ctx context.Context, from common.Address, name, goalDisplay string, durationDays int) (Tx, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	goal, err := ethunit.ParseAmount(goalDisplay)
	if err != nil {
		return nil, &ValidationError{Field: "goal", Reason: "must be a positive amount in ETH"}
	}
	if durationDays <= 0 {
		return nil, &ValidationError{Field: "duration", Reason: "must be at least one day"}
	}

	tx, err := s.contract.CreateCampaign(ctx, from, name, goal, uint64(durationDays))
	if err != nil {
		return nil, &BoundaryError{Op: "creating campaign", Err: err}
	}
	return tx, s.await(ctx, "creating campaign", tx)
}

// WithdrawFunds submits the withdrawal only after the explicit confirmation
// gate passes; withdrawing is irreversible on-chain.
func (s *Service) WithdrawFunds(ctx context.Context, from common.Address, id uint64) (Tx, error) {
	if !s.confirmer.Confirm(fmt.Sprintf("Withdraw all funds from campaign %d?", id)) {
		return nil, ErrNotConfirmed
	}
	tx, err := s.contract.WithdrawFunds(ctx, from, id)
	if err != nil {
		return nil, &BoundaryError{Op: "withdrawing funds", Err: err}
	}
	return tx, s.await(ctx, "withdrawing funds", tx)
}

// Register submits the donor registration for the connected account.
func (s *Service) Register(ctx context.Context, from common.Address) (Tx, error) {
	tx, err := s.contract.Register(ctx, from)
	if err != nil {
		return nil, &BoundaryError{Op: "registering donor", Err: err}
	}
	return tx, s.await(ctx, "registering donor", tx)
}

// Donate validates the amount and submits it as the transaction's attached
// value; the paid value is the donation.
func (s *Service) Donate(ctx context.Context, from common.Address, id uint64, amountDisplay string) (Tx, error) {
	value, err := ethunit.ParseAmount(amountDisplay)
	if err != nil {
		return nil, &ValidationError{Field: "amount", Reason: "must be a positive amount in ETH"}
	}
	tx, err := s.contract.Donate(ctx, from, id, value)
	if err != nil {
		return nil, &BoundaryError{Op: "donating", Err: err}
	}
	return tx, s.await(ctx, "donating", tx)
}

func (s *Service) await(ctx context.Context, op string, tx Tx) error {
	s.log.InfoContext(ctx, "Awaiting transaction confirmation",
		slog.String("op", op),
		slog.String("tx", tx.Hash().Hex()),
	)
	if err := tx.Wait(ctx); err != nil {
		return &BoundaryError{Op: op, Err: err}
	}
	return nil
}
