package balance

import (
	"context"
	"errors"

	balanceerrors "go-leavedesk/internal/balance/errors"
	"go-leavedesk/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Keeper performs the ledger mutations of the lifecycle engine. It must be
// bound to a transaction with WithTx: GetOrCreate locks the row, and every
// later Debit/Credit/Reset on that ledger relies on the lock being held.
type Keeper struct {
	repo   Repository
	policy PolicyTable
	logger *zap.Logger
}

type CreditResult struct {
	Credited int
	// Capped is set when the credit would have pushed the counter above
	// the ledger ceiling and was clamped.
	Capped bool
}

func NewKeeper(repo Repository, policy PolicyTable, logger ...*zap.Logger) *Keeper {
	l := zap.L().Named("balance.keeper")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.keeper")
	}
	return &Keeper{repo: repo, policy: policy, logger: l}
}

func (k *Keeper) WithTx(tx *gorm.DB) *Keeper {
	return &Keeper{repo: k.repo.WithTx(tx), policy: k.policy, logger: k.logger}
}

func (k *Keeper) Policy() PolicyTable {
	return k.policy
}

// GetOrCreate returns the locked ledger of employeeID for year, creating it
// with the policy allotment of the employee's role and grade on first access.
func (k *Keeper) GetOrCreate(ctx context.Context, employeeID uuid.UUID, year int) (*Ledger, error) {
	l, err := k.repo.FindForUpdate(ctx, employeeID, year)
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	profile, err := k.repo.EmployeeProfile(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, balanceerrors.ErrEmployeeNotFound
		}
		return nil, err
	}

	allot := k.policy.Allotment(profile.Role, profile.Grade)
	fresh := &Ledger{
		ID:               uuid.New(),
		EmployeeID:       employeeID,
		Year:             year,
		AnnualRemaining:  allot.Annual,
		AbsenceRemaining: allot.Absence,
		AnnualCeiling:    allot.Annual,
		AbsenceCeiling:   allot.Absence,
	}
	if err := k.repo.CreateIfAbsent(ctx, fresh); err != nil {
		return nil, err
	}
	k.logger.Info("balance ledger provisioned",
		zap.String("employee_id", employeeID.String()),
		zap.Int("year", year),
		zap.Int("annual", allot.Annual),
		zap.Int("absence", allot.Absence),
	)

	return k.repo.FindForUpdate(ctx, employeeID, year)
}

// Debit takes days from the counter of leaveType. Untracked types are a
// no-op. The ledger is left untouched when the result would be negative.
func (k *Keeper) Debit(ctx context.Context, l *Ledger, leaveType domain.LeaveType, days int) error {
	if !leaveType.BalanceTracked() {
		return nil
	}
	if days < 0 {
		return balanceerrors.ErrNegativeAmount
	}

	current, _ := l.Remaining(leaveType)
	if current-days < 0 {
		k.logger.Warn("debit rejected, insufficient balance",
			zap.String("employee_id", l.EmployeeID.String()),
			zap.Int("year", l.Year),
			zap.String("leave_type", string(leaveType)),
			zap.Int("remaining", current),
			zap.Int("requested", days),
		)
		return balanceerrors.ErrInsufficientBalance
	}

	l.set(leaveType, current-days)
	if err := k.repo.Save(ctx, l); err != nil {
		l.set(leaveType, current)
		return err
	}
	return nil
}

// Credit gives days back to the counter of leaveType, clamped at the ledger
// ceiling.
func (k *Keeper) Credit(ctx context.Context, l *Ledger, leaveType domain.LeaveType, days int) (CreditResult, error) {
	if !leaveType.BalanceTracked() {
		return CreditResult{}, nil
	}
	if days < 0 {
		return CreditResult{}, balanceerrors.ErrNegativeAmount
	}

	current, _ := l.Remaining(leaveType)
	next := current + days
	result := CreditResult{Credited: days}
	if ceiling := l.ceiling(leaveType); next > ceiling {
		k.logger.Warn("credit capped at ledger ceiling",
			zap.String("employee_id", l.EmployeeID.String()),
			zap.Int("year", l.Year),
			zap.String("leave_type", string(leaveType)),
			zap.Int("remaining", current),
			zap.Int("requested", days),
			zap.Int("ceiling", ceiling),
		)
		next = max(ceiling, current)
		result = CreditResult{Credited: next - current, Capped: true}
	}

	l.set(leaveType, next)
	if err := k.repo.Save(ctx, l); err != nil {
		l.set(leaveType, current)
		return CreditResult{}, err
	}
	return result, nil
}

// Reset replaces both counters. Ceilings are raised so that the new values
// stay reachable by later credits.
func (k *Keeper) Reset(ctx context.Context, l *Ledger, annual, absence int) error {
	if annual < 0 || absence < 0 {
		return balanceerrors.ErrNegativeAmount
	}

	l.AnnualRemaining = annual
	l.AbsenceRemaining = absence
	l.AnnualCeiling = max(l.AnnualCeiling, annual)
	l.AbsenceCeiling = max(l.AbsenceCeiling, absence)
	return k.repo.Save(ctx, l)
}

// ApplyPolicy overwrites the ledger of year with the allotment of role and
// grade. Used when either attribute of an employee changes.
func (k *Keeper) ApplyPolicy(ctx context.Context, employeeID uuid.UUID, year int, role, grade string) (*Ledger, error) {
	l, err := k.GetOrCreate(ctx, employeeID, year)
	if err != nil {
		return nil, err
	}

	allot := k.policy.Allotment(role, grade)
	l.AnnualRemaining = allot.Annual
	l.AbsenceRemaining = allot.Absence
	l.AnnualCeiling = allot.Annual
	l.AbsenceCeiling = allot.Absence
	if err := k.repo.Save(ctx, l); err != nil {
		return nil, err
	}

	k.logger.Info("balance policy re-applied",
		zap.String("employee_id", employeeID.String()),
		zap.Int("year", year),
		zap.String("role", role),
		zap.String("grade", grade),
	)
	return l, nil
}
