package draft

import (
	"fmt"

	"github.com/okian/playoffdraft/internal/domain/errs"
)

// Sentinel kinds for draft failures. Both are conflicts.
var (
	ErrInsufficientBudget       = fmt.Errorf("insufficient budget: %w", errs.ErrConflict)
	ErrSlotOccupiedOrIneligible = fmt.Errorf("slot occupied or player ineligible: %w", errs.ErrConflict)
)

// BudgetError reports a pick that costs more than the team has left.
type BudgetError struct {
	Team      string
	Cost      int
	Remaining int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("%s cannot spend $%d: only $%d remaining", e.Team, e.Cost, e.Remaining)
}

func (e *BudgetError) Unwrap() error { return ErrInsufficientBudget }

// SlotError reports a pick rejected by roster rules or ownership.
type SlotError struct {
	Team   string
	Slot   int
	Reason string
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("%s slot %d: %s", e.Team, e.Slot, e.Reason)
}

func (e *SlotError) Unwrap() error { return ErrSlotOccupiedOrIneligible }
