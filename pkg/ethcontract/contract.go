// Package ethcontract binds the crowdfunding contract's public surface to
// the funding boundary interfaces.
package ethcontract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/heart2help/fundclient/funding"
)

// fundraiserABI is the contract's public call/transaction surface. Older
// contract revisions stored names as bytes32; reads pass the raw decoded
// value through so the codec can handle both.
const fundraiserABI = `[
  {"type":"function","name":"admin","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"campaignCount","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"campaigns","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"name","type":"string"},{"name":"goal","type":"uint256"},{"name":"collected","type":"uint256"},{"name":"deadline","type":"uint256"}]},
  {"type":"function","name":"isDonorRegistered","stateMutability":"view","inputs":[{"name":"donor","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"createCampaign","stateMutability":"nonpayable","inputs":[{"name":"name","type":"string"},{"name":"goal","type":"uint256"},{"name":"durationDays","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"withdrawFunds","stateMutability":"nonpayable","inputs":[{"name":"id","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"register","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"donate","stateMutability":"payable","inputs":[{"name":"id","type":"uint256"}],"outputs":[]}
]`

// Sentinel errors
var (
	ErrExecutionReverted = errors.New("transaction reverted on-chain")
)

// Backend is the node capability the contract needs: calls, transactions
// and receipt lookups.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Signers yields transaction-signing options for an account. Implemented by
// ethwallet.Wallet.
type Signers interface {
	Transactor(account common.Address) (*bind.TransactOpts, error)
}

// Contract implements the funding.Contract boundary over a deployed
// crowdfunding contract.
type Contract struct {
	address common.Address
	bound   *bind.BoundContract
	backend Backend
	signers Signers
}

// New binds the contract at address on the given backend.
func New(backend Backend, address common.Address, signers Signers) (*Contract, error) {
	parsed, err := abi.JSON(strings.NewReader(fundraiserABI))
	if err != nil {
		return nil, fmt.Errorf("parsing contract ABI: %w", err)
	}
	return &Contract{
		address: address,
		bound:   bind.NewBoundContract(address, parsed, backend, backend, backend),
		backend: backend,
		signers: signers,
	}, nil
}

// Address returns the bound contract address.
func (c *Contract) Address() common.Address {
	return c.address
}

func (c *Contract) Administrator(ctx context.Context) (common.Address, error) {
	var out []any
	if err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, "admin"); err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (c *Contract) CampaignCount(ctx context.Context) (uint64, error) {
	var out []any
	if err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, "campaignCount"); err != nil {
		return 0, err
	}
	count := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	return count.Uint64(), nil
}

func (c *Contract) CampaignAt(ctx context.Context, index uint64) (funding.CampaignRecord, error) {
	var out []any
	err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, "campaigns", new(big.Int).SetUint64(index))
	if err != nil {
		return funding.CampaignRecord{}, err
	}
	return funding.CampaignRecord{
		Name:      out[0], // raw; the codec decides whether it is text or a padded buffer
		Goal:      *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		Collected: *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		Deadline:  *abi.ConvertType(out[3], new(*big.Int)).(**big.Int),
	}, nil
}

func (c *Contract) IsDonorRegistered(ctx context.Context, account common.Address) (bool, error) {
	var out []any
	if err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, "isDonorRegistered", account); err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (c *Contract) CreateCampaign(ctx context.Context, from common.Address, name string, goal *big.Int, durationDays uint64) (funding.Tx, error) {
	return c.transact(ctx, from, nil, "createCampaign", name, goal, new(big.Int).SetUint64(durationDays))
}

func (c *Contract) WithdrawFunds(ctx context.Context, from common.Address, id uint64) (funding.Tx, error) {
	return c.transact(ctx, from, nil, "withdrawFunds", new(big.Int).SetUint64(id))
}

func (c *Contract) Register(ctx context.Context, from common.Address) (funding.Tx, error) {
	return c.transact(ctx, from, nil, "register")
}

func (c *Contract) Donate(ctx context.Context, from common.Address, id uint64, value *big.Int) (funding.Tx, error) {
	return c.transact(ctx, from, value, "donate", new(big.Int).SetUint64(id))
}

func (c *Contract) transact(ctx context.Context, from common.Address, value *big.Int, method string, args ...any) (funding.Tx, error) {
	opts, err := c.signers.Transactor(from)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	opts.Value = value

	tx, err := c.bound.Transact(opts, method, args...)
	if err != nil {
		return nil, err
	}
	return &confirmation{tx: tx, backend: c.backend}, nil
}

// confirmation implements funding.Tx for a submitted transaction.
type confirmation struct {
	tx      *types.Transaction
	backend bind.DeployBackend
}

func (c *confirmation) Hash() common.Hash {
	return c.tx.Hash()
}

// Wait blocks until the transaction is mined and fails if it reverted.
func (c *confirmation) Wait(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, c.backend, c.tx)
	if err != nil {
		return fmt.Errorf("awaiting confirmation: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: tx %s", ErrExecutionReverted, c.tx.Hash().Hex())
	}
	return nil
}
