package funding_test

import (
	"context"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/heart2help/fundclient/funding"
)

// Shared test doubles for the wallet and contract boundaries.
// -----------------------------------------------------------

var (
	adminAddr = common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	donorAddr = common.HexToAddress("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB")
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type fakeTx struct {
	hash    common.Hash
	waitErr error
}

func (t *fakeTx) Hash() common.Hash            { return t.hash }
func (t *fakeTx) Wait(_ context.Context) error { return t.waitErr }

type fakeWallet struct {
	mu          sync.Mutex
	accounts    []common.Address
	accountsErr error
	requestErr  error
	changes     chan []common.Address

	accountsCalls int
	requestCalls  int
}

func newFakeWallet(accounts ...common.Address) *fakeWallet {
	return &fakeWallet{
		accounts: accounts,
		changes:  make(chan []common.Address, 4),
	}
}

func (w *fakeWallet) Accounts(_ context.Context) ([]common.Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.accountsCalls++
	if w.accountsErr != nil {
		return nil, w.accountsErr
	}
	return w.accounts, nil
}

func (w *fakeWallet) RequestAccounts(_ context.Context) ([]common.Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.requestCalls++
	if w.requestErr != nil {
		return nil, w.requestErr
	}
	return w.accounts, nil
}

func (w *fakeWallet) AccountChanges(_ context.Context) (<-chan []common.Address, error) {
	return w.changes, nil
}

type fakeContract struct {
	mu         sync.Mutex
	admin      common.Address
	records    []funding.CampaignRecord
	recordErr  map[uint64]error
	countErr   error
	registered map[common.Address]bool
	submitErr  error
	waitErr    error

	countCalls    int
	createCalls   int
	withdrawCalls int
	registerCalls int
	donateCalls   int

	lastCreateName string
	lastCreateGoal *big.Int
	lastCreateDays uint64
	lastDonateID   uint64
	lastDonateWei  *big.Int
	lastWithdrawID uint64
}

func newFakeContract(admin common.Address) *fakeContract {
	return &fakeContract{
		admin:      admin,
		recordErr:  make(map[uint64]error),
		registered: make(map[common.Address]bool),
	}
}

func (c *fakeContract) Administrator(_ context.Context) (common.Address, error) {
	return c.admin, nil
}

func (c *fakeContract) CampaignCount(_ context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.countCalls++
	if c.countErr != nil {
		return 0, c.countErr
	}
	return uint64(len(c.records)), nil
}

func (c *fakeContract) CampaignAt(_ context.Context, index uint64) (funding.CampaignRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.recordErr[index]; err != nil {
		return funding.CampaignRecord{}, err
	}
	return c.records[index], nil
}

func (c *fakeContract) IsDonorRegistered(_ context.Context, account common.Address) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registered[account], nil
}

func (c *fakeContract) CreateCampaign(_ context.Context, _ common.Address, name string, goal *big.Int, durationDays uint64) (funding.Tx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createCalls++
	if c.submitErr != nil {
		return nil, c.submitErr
	}
	c.lastCreateName = name
	c.lastCreateGoal = goal
	c.lastCreateDays = durationDays
	return &fakeTx{waitErr: c.waitErr}, nil
}

func (c *fakeContract) WithdrawFunds(_ context.Context, _ common.Address, id uint64) (funding.Tx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.withdrawCalls++
	if c.submitErr != nil {
		return nil, c.submitErr
	}
	c.lastWithdrawID = id
	return &fakeTx{waitErr: c.waitErr}, nil
}

func (c *fakeContract) Register(_ context.Context, from common.Address) (funding.Tx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registerCalls++
	if c.submitErr != nil {
		return nil, c.submitErr
	}
	c.registered[from] = true
	return &fakeTx{waitErr: c.waitErr}, nil
}

func (c *fakeContract) Donate(_ context.Context, _ common.Address, id uint64, value *big.Int) (funding.Tx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.donateCalls++
	if c.submitErr != nil {
		return nil, c.submitErr
	}
	c.lastDonateID = id
	c.lastDonateWei = value
	return &fakeTx{waitErr: c.waitErr}, nil
}

// record builds a well-formed stored campaign record.
func record(name string, goalWei, collectedWei int64, deadline int64) funding.CampaignRecord {
	return funding.CampaignRecord{
		Name:      name,
		Goal:      big.NewInt(goalWei),
		Collected: big.NewInt(collectedWei),
		Deadline:  big.NewInt(deadline),
	}
}

// approveAll and declineAll are the two ends of the withdrawal gate.
func approveAll() funding.Confirmer {
	return funding.ConfirmerFunc(func(string) bool { return true })
}

func declineAll() funding.Confirmer {
	return funding.ConfirmerFunc(func(string) bool { return false })
}
