package domain

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// UnlimitedKeyword is the operator input for an uncapped purchase budget.
const UnlimitedKeyword = "unlimited"

// PurchaseBudget caps how many toll-free numbers a run may buy. One budget is
// shared by every sub-account of a run. Purchases reserve a slot first so the
// cap holds even with concurrent callers.
type PurchaseBudget struct {
	mu        sync.Mutex
	max       int
	unlimited bool
	used      int
	reserved  int
	halted    bool
}

// NewPurchaseBudget returns a budget allowing at most max purchases.
func NewPurchaseBudget(max int) *PurchaseBudget {
	if max < 0 {
		max = 0
	}
	return &PurchaseBudget{max: max}
}

// NewUnlimitedPurchaseBudget returns a budget without a ceiling.
func NewUnlimitedPurchaseBudget() *PurchaseBudget {
	return &PurchaseBudget{unlimited: true}
}

// ParseMaxTollFree parses the operator's purchase ceiling: a non-negative
// integer or "unlimited".
func ParseMaxTollFree(s string) (*PurchaseBudget, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, UnlimitedKeyword) {
		return NewUnlimitedPurchaseBudget(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: max toll-free numbers %q is neither an integer nor %q", ErrInvalidRunOptions, s, UnlimitedKeyword)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: max toll-free numbers must not be negative, got %d", ErrInvalidRunOptions, n)
	}
	return NewPurchaseBudget(n), nil
}

// Reserve claims one purchase slot. It returns false when the ceiling is
// reached or purchasing has been halted.
func (b *PurchaseBudget) Reserve() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.halted {
		return false
	}
	if !b.unlimited && b.used+b.reserved >= b.max {
		return false
	}
	b.reserved++
	return true
}

// Commit turns a reserved slot into a completed purchase.
func (b *PurchaseBudget) Commit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.reserved > 0 {
		b.reserved--
	}
	b.used++
}

// Release returns a reserved slot that did not result in a purchase.
func (b *PurchaseBudget) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.reserved > 0 {
		b.reserved--
	}
}

// Halt stops all further purchases for the run, e.g. when the provider has no
// inventory left.
func (b *PurchaseBudget) Halt() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.halted = true
}

// Used returns the number of completed purchases.
func (b *PurchaseBudget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Exhausted reports whether no further purchase can be reserved.
func (b *PurchaseBudget) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.halted || (!b.unlimited && b.used+b.reserved >= b.max)
}

// String describes the budget for logs.
func (b *PurchaseBudget) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unlimited {
		return fmt.Sprintf("%d/unlimited", b.used)
	}
	return fmt.Sprintf("%d/%d", b.used, b.max)
}
