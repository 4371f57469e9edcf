package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aradsms/tollfree_migrator/internal/migration_service/domain"
)

// DefaultTollFreeCountry is where replacement numbers are bought.
const DefaultTollFreeCountry = "US"

// AllocationOutcome tells the orchestrator where a replacement came from, or
// why none was found.
type AllocationOutcome int

const (
	AllocationReused AllocationOutcome = iota
	AllocationPurchased
	AllocationBudgetExhausted
	AllocationInventoryExhausted
)

// String returns the string representation of the AllocationOutcome.
func (o AllocationOutcome) String() string {
	switch o {
	case AllocationReused:
		return "reused"
	case AllocationPurchased:
		return "purchased"
	case AllocationBudgetExhausted:
		return "budget_exhausted"
	case AllocationInventoryExhausted:
		return "inventory_exhausted"
	default:
		return "unknown"
	}
}

// Allocation is the result of TollFreePool.Allocate. Number is nil unless the
// outcome is AllocationReused or AllocationPurchased.
type Allocation struct {
	Outcome AllocationOutcome
	Number  *domain.PhoneNumberRecord
}

// Allocated reports whether a replacement number was found.
func (a Allocation) Allocated() bool {
	return a.Number != nil
}

// TollFreePool hands out replacement toll-free numbers for one sub-account:
// unassigned numbers it already owns first, then purchases.
type TollFreePool struct {
	inventory  domain.NumberInventory
	country    string
	unassigned []domain.PhoneNumberRecord
	logger     *slog.Logger
}

// ComputeUnassigned builds the pool for an account from the toll-free numbers it
// owns that are not bound to any of the given messaging services.
func ComputeUnassigned(ctx context.Context, provider domain.Provider, services []domain.MessagingService, country string, logger *slog.Logger) (*TollFreePool, error) {
	accountSID := provider.AccountSID()

	owned, err := provider.ListIncomingPhoneNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list incoming phone numbers: %w", err)
	}

	bound := make(map[string]struct{})
	for _, svc := range services {
		numbers, err := provider.ListServicePhoneNumbers(ctx, svc.SID)
		if err != nil {
			return nil, fmt.Errorf("failed to list phone numbers of service %s: %w", svc.SID, err)
		}
		for _, n := range numbers {
			bound[n.PhoneNumber] = struct{}{}
		}
	}

	var unassigned []domain.PhoneNumberRecord
	for _, n := range owned {
		if !domain.IsTollFree(n.PhoneNumber) {
			continue
		}
		if _, ok := bound[n.PhoneNumber]; ok {
			continue
		}
		unassigned = append(unassigned, n)
	}

	if country == "" {
		country = DefaultTollFreeCountry
	}
	pool := &TollFreePool{
		inventory:  provider,
		country:    country,
		unassigned: unassigned,
		logger:     logger.With("component", "tollfree_pool", "account_sid", accountSID),
	}
	pool.logger.InfoContext(ctx, "Computed unassigned toll-free pool",
		"owned_numbers", len(owned), "bound_numbers", len(bound), "unassigned_tollfree", len(unassigned))
	return pool, nil
}

// Len returns the number of unassigned numbers left.
func (p *TollFreePool) Len() int {
	return len(p.unassigned)
}

// Return puts a number that could not be assigned back at the head of the
// pool so the next allocation hands it out again.
func (p *TollFreePool) Return(n domain.PhoneNumberRecord) {
	p.unassigned = append([]domain.PhoneNumberRecord{n}, p.unassigned...)
	p.logger.Info("Returned toll-free number to pool", "phone_number", n.PhoneNumber, "remaining", len(p.unassigned))
}

// Allocate returns the next replacement number. Owned numbers are reused in
// FIFO order; when none are left one number is bought if budget allows.
// Exhaustion is reported through the outcome, not as an error. At most one
// purchase is attempted per call.
func (p *TollFreePool) Allocate(ctx context.Context, budget *domain.PurchaseBudget) (Allocation, error) {
	if len(p.unassigned) > 0 {
		next := p.unassigned[0]
		p.unassigned = p.unassigned[1:]
		p.logger.InfoContext(ctx, "Reusing unassigned toll-free number", "phone_number", next.PhoneNumber, "remaining", len(p.unassigned))
		return Allocation{Outcome: AllocationReused, Number: &next}, nil
	}

	if !budget.Reserve() {
		p.logger.WarnContext(ctx, "Toll-free purchase budget exhausted", "budget", budget.String())
		return Allocation{Outcome: AllocationBudgetExhausted}, nil
	}

	available, err := p.inventory.SearchAvailableTollFree(ctx, p.country, 1)
	if err != nil {
		budget.Release()
		return Allocation{}, fmt.Errorf("failed to search available toll-free numbers: %w", err)
	}
	if len(available) == 0 {
		budget.Release()
		budget.Halt()
		p.logger.WarnContext(ctx, "No toll-free numbers available for purchase, halting purchases for this run", "country", p.country)
		return Allocation{Outcome: AllocationInventoryExhausted}, nil
	}

	purchased, err := p.inventory.PurchasePhoneNumber(ctx, available[0])
	if err != nil {
		budget.Release()
		return Allocation{}, fmt.Errorf("failed to purchase toll-free number %s: %w", available[0], err)
	}
	budget.Commit()

	p.logger.InfoContext(ctx, "Purchased toll-free number", "phone_number", purchased.PhoneNumber, "phone_number_sid", purchased.SID, "budget", budget.String())
	return Allocation{Outcome: AllocationPurchased, Number: purchased}, nil
}
