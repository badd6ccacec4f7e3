package balance

import (
	"context"
	"time"

	balanceerrors "go-leavedesk/internal/balance/errors"
	"go-leavedesk/internal/events"
	"go-leavedesk/internal/shared/dbtx"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProfileSync keeps current-year ledgers in line with directory events.
type ProfileSync struct {
	tx     *dbtx.Runner
	keeper *Keeper
	cache  Cache
	now    func() time.Time
	logger *zap.Logger
}

func NewProfileSync(tx *dbtx.Runner, keeper *Keeper, cache Cache, logger ...*zap.Logger) *ProfileSync {
	l := zap.L().Named("balance.profile_sync")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.profile_sync")
	}
	if cache == nil {
		cache = noopCache{}
	}
	return &ProfileSync{tx: tx, keeper: keeper, cache: cache, now: time.Now, logger: l}
}

// HandleEmployeeLifecycle provisions the ledger on employee_created and
// re-applies the policy when role or grade changed. Replays are harmless:
// provisioning is insert-if-absent and events without a policy change are
// ignored.
func (p *ProfileSync) HandleEmployeeLifecycle(ctx context.Context, evt events.EmployeeLifecycleEvent) error {
	if evt.Source == events.SourceLeaveDesk {
		p.logger.Debug("skipping own employee event",
			zap.String("event_type", evt.EventType),
			zap.String("employee_id", evt.EmployeeID),
		)
		return nil
	}

	empID, err := uuid.Parse(evt.EmployeeID)
	if err != nil {
		return balanceerrors.ErrInvalidEmployeeID
	}
	year := p.now().Year()

	switch evt.EventType {
	case events.EmployeeCreated:
		err = p.tx.Run(ctx, func(tx *gorm.DB) error {
			_, err := p.keeper.WithTx(tx).GetOrCreate(ctx, empID, year)
			return err
		})
	case events.EmployeeProfileChanged:
		if !evt.PolicyChanged() {
			return nil
		}
		err = p.tx.Run(ctx, func(tx *gorm.DB) error {
			_, err := p.keeper.WithTx(tx).ApplyPolicy(ctx, empID, year, evt.Role, evt.Grade)
			return err
		})
	default:
		p.logger.Debug("ignoring employee event", zap.String("event_type", evt.EventType))
		return nil
	}
	if err != nil {
		return err
	}

	p.cache.Invalidate(ctx, evt.EmployeeID, year)
	return nil
}
