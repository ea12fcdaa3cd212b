// Package testutil provides test utilities and fixtures for go-pattern.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/AshkanYarmoradi/go-pattern"
)

// =============================================================================
// Account: an event-sourced fixture
// =============================================================================

// ErrInsufficientFunds is returned by Account.Withdraw.
var ErrInsufficientFunds = fmt.Errorf("insufficient funds")

// Account is an event-sourced test fixture holding a balance in cents.
type Account struct {
	pattern.EventSourced
}

// AccountOperations is the operation table for Account.
var AccountOperations = pattern.NewOperationTable[*Account]().
	Register("open", pattern.Op1(func(_ context.Context, a *Account, owner string) error {
		return a.Open(owner)
	})).
	Register("deposit", pattern.Op1(func(_ context.Context, a *Account, amount int64) error {
		return a.Deposit(amount)
	})).
	Register("withdraw", pattern.Op1(func(_ context.Context, a *Account, amount int64) error {
		return a.Withdraw(amount)
	})).
	Register("close", pattern.Op0(func(_ context.Context, a *Account) error {
		return a.Close()
	}))

// NewAccount creates an empty Account with a fixed identity.
func NewAccount(identity string) *Account {
	a := &Account{}
	a.Configure(pattern.WithIdentityGenerator(pattern.IdentityFunc(func() string { return identity })))
	a.SetType("Account")
	a.Init(pattern.NewSnapshot(pattern.Document{"balance": int64(0), "status": ""}), nil)
	a.Bind(AccountOperations.Bind(a))
	return a
}

// Open opens the account for owner.
func (a *Account) Open(owner string) error {
	if a.Status() != "" {
		return fmt.Errorf("account already opened")
	}
	a.Push("open", owner)
	a.Set("owner", owner)
	a.Set("status", "open")
	return nil
}

// Deposit adds amount to the balance.
func (a *Account) Deposit(amount int64) error {
	if a.Status() != "open" {
		return fmt.Errorf("cannot deposit: account status is %q", a.Status())
	}
	a.Push("deposit", amount)
	a.Set("balance", a.Balance()+amount)
	return nil
}

// Withdraw removes amount from the balance.
func (a *Account) Withdraw(amount int64) error {
	if a.Status() != "open" {
		return fmt.Errorf("cannot withdraw: account status is %q", a.Status())
	}
	if amount > a.Balance() {
		return ErrInsufficientFunds
	}
	a.Push("withdraw", amount)
	a.Set("balance", a.Balance()-amount)
	return nil
}

// Close closes the account.
func (a *Account) Close() error {
	if a.Status() == "closed" {
		return fmt.Errorf("account already closed")
	}
	a.Push("close")
	a.Set("status", "closed")
	return nil
}

// Balance returns the balance in cents.
func (a *Account) Balance() int64 {
	v, _ := pattern.Convert[int64](a.Get("balance"))
	return v
}

// Status returns the account status.
func (a *Account) Status() string {
	s, _ := a.Get("status").(string)
	return s
}

// Owner returns the account owner.
func (a *Account) Owner() string {
	s, _ := a.Get("owner").(string)
	return s
}

// =============================================================================
// Counter: a plain command target
// =============================================================================

// Counter is a goroutine-safe command target for history tests.
type Counter struct {
	mu  sync.Mutex
	sum int
}

// CounterOperations is the operation table for Counter.
var CounterOperations = pattern.NewOperationTable[*Counter]().
	Register("incr", pattern.Op0(func(_ context.Context, c *Counter) error {
		c.Add(1)
		return nil
	})).
	Register("decr", pattern.Op0(func(_ context.Context, c *Counter) error {
		c.Add(-1)
		return nil
	})).
	Register("add", pattern.Op1(func(_ context.Context, c *Counter, n int) error {
		c.Add(n)
		return nil
	}))

// Add adds n to the sum.
func (c *Counter) Add(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sum += n
}

// Sum returns the current sum.
func (c *Counter) Sum() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sum
}
