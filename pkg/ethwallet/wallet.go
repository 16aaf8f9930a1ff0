// Package ethwallet implements the funding wallet boundary over a local
// keystore and a JSON-RPC node connection. Unlocking an account with its
// passphrase plays the role of the wallet authorization prompt.
package ethwallet

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/heart2help/fundclient/funding"
)

// Prompter supplies the passphrase when authorization is requested.
// Returning an error means the user declined.
type Prompter interface {
	Passphrase(account common.Address) (string, error)
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(account common.Address) (string, error)

func (f PrompterFunc) Passphrase(account common.Address) (string, error) { return f(account) }

// Wallet is a keystore-backed wallet bound to one node connection.
type Wallet struct {
	ks       *keystore.KeyStore
	client   *ethclient.Client
	chainID  *big.Int
	prompter Prompter

	mu       sync.Mutex
	unlocked map[common.Address]bool
}

// Open dials the node and opens the keystore directory. A missing or
// unreachable provider environment maps to funding.ErrWalletUnavailable.
func Open(ctx context.Context, rpcURL, keystoreDir string, prompter Prompter) (*Wallet, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", funding.ErrWalletUnavailable, err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", funding.ErrWalletUnavailable, err)
	}
	return &Wallet{
		ks:       keystore.NewKeyStore(keystoreDir, keystore.StandardScryptN, keystore.StandardScryptP),
		client:   client,
		chainID:  chainID,
		prompter: prompter,
		unlocked: make(map[common.Address]bool),
	}, nil
}

// Close releases the node connection.
func (w *Wallet) Close() {
	w.client.Close()
}

// Accounts lists already-authorized (unlocked) accounts without prompting.
func (w *Wallet) Accounts(ctx context.Context) ([]common.Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []common.Address
	for _, acc := range w.ks.Accounts() {
		if w.unlocked[acc.Address] {
			out = append(out, acc.Address)
		}
	}
	return out, nil
}

// RequestAccounts prompts for the keystore passphrase and unlocks the first
// account. A declined prompt or a wrong passphrase maps to
// funding.ErrUserRejected.
func (w *Wallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	all := w.ks.Accounts()
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: keystore holds no accounts", funding.ErrWalletUnavailable)
	}
	acc := all[0]

	passphrase, err := w.prompter.Passphrase(acc.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", funding.ErrUserRejected, err)
	}
	if err := w.ks.Unlock(acc, passphrase); err != nil {
		return nil, fmt.Errorf("%w: %w", funding.ErrUserRejected, err)
	}

	w.mu.Lock()
	w.unlocked[acc.Address] = true
	w.mu.Unlock()
	return []common.Address{acc.Address}, nil
}

// AccountChanges adapts keystore wallet arrival/drop events into the
// account-change stream. The channel closes when ctx ends or the
// subscription fails.
func (w *Wallet) AccountChanges(ctx context.Context) (<-chan []common.Address, error) {
	sink := make(chan accounts.WalletEvent, 16)
	sub := w.ks.Subscribe(sink)

	out := make(chan []common.Address, 1)
	go func() {
		defer sub.Unsubscribe()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Err():
				return
			case <-sink:
				current, err := w.Accounts(ctx)
				if err != nil {
					continue
				}
				select {
				case out <- current:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Transactor returns signing options bound to the account for contract
// transactions.
func (w *Wallet) Transactor(account common.Address) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyStoreTransactorWithChainID(w.ks, accounts.Account{Address: account}, w.chainID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", funding.ErrWalletUnavailable, err)
	}
	return opts, nil
}

// Backend exposes the node connection for contract binding.
func (w *Wallet) Backend() *ethclient.Client {
	return w.client
}
