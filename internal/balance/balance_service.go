package balance

import (
	"context"
	"time"

	balanceerrors "go-leavedesk/internal/balance/errors"
	"go-leavedesk/internal/shared/contextutil"
	"go-leavedesk/internal/shared/dbtx"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

//go:generate mockgen -source=balance_service.go -destination=mock/balance_service_mock.go -package=mock
type Service interface {
	Get(ctx context.Context, employeeID string, year int) (LedgerResponse, error)
	History(ctx context.Context, employeeID string) ([]LedgerResponse, error)
	Reset(ctx context.Context, employeeID string, year int, req ResetBalanceRequest) (LedgerResponse, error)
}

type service struct {
	tx     *dbtx.Runner
	repo   Repository
	keeper *Keeper
	cache  Cache
	sf     *singleflight.Group
	now    func() time.Time
	logger *zap.Logger
}

func NewService(tx *dbtx.Runner, repo Repository, keeper *Keeper, cache Cache, logger ...*zap.Logger) Service {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	if cache == nil {
		cache = noopCache{}
	}
	return &service{
		tx:     tx,
		repo:   repo,
		keeper: keeper,
		cache:  cache,
		sf:     &singleflight.Group{},
		now:    time.Now,
		logger: l,
	}
}

// Get returns the ledger of employeeID for year (current year when 0),
// provisioning it on first access.
func (s *service) Get(ctx context.Context, employeeID string, year int) (LedgerResponse, error) {
	empUUID, year, err := s.parseKey(employeeID, year)
	if err != nil {
		return LedgerResponse{}, err
	}

	if cached, ok := s.cache.Get(ctx, employeeID, year); ok {
		return cached, nil
	}

	key := LedgerCacheKey(employeeID, year)
	v, err, _ := s.sf.Do(key, func() (any, error) {
		var resp LedgerResponse
		err := s.tx.Run(ctx, func(tx *gorm.DB) error {
			l, err := s.keeper.WithTx(tx).GetOrCreate(ctx, empUUID, year)
			if err != nil {
				return err
			}
			resp = mapToResponse(*l)
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, resp)
		return resp, nil
	})
	if err != nil {
		s.logger.Warn("get balance failed",
			zap.String("employee_id", employeeID),
			zap.Int("year", year),
			zap.Error(err),
		)
		return LedgerResponse{}, err
	}

	return v.(LedgerResponse), nil
}

func (s *service) History(ctx context.Context, employeeID string) ([]LedgerResponse, error) {
	empUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return nil, balanceerrors.ErrInvalidEmployeeID
	}

	ledgers, err := s.repo.ListByEmployee(ctx, empUUID)
	if err != nil {
		s.logger.Error("list balance history failed", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	return mapToListResponse(ledgers), nil
}

func (s *service) Reset(ctx context.Context, employeeID string, year int, req ResetBalanceRequest) (LedgerResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	empUUID, year, err := s.parseKey(employeeID, year)
	if err != nil {
		return LedgerResponse{}, err
	}
	if req.AnnualRemaining == nil || req.AbsenceRemaining == nil {
		return LedgerResponse{}, balanceerrors.ErrNegativeAmount
	}

	log.Debug("reset balance requested",
		zap.String("employee_id", employeeID),
		zap.Int("year", year),
		zap.Int("annual", *req.AnnualRemaining),
		zap.Int("absence", *req.AbsenceRemaining),
	)

	var resp LedgerResponse
	err = s.tx.Run(ctx, func(tx *gorm.DB) error {
		keeper := s.keeper.WithTx(tx)
		l, err := keeper.GetOrCreate(ctx, empUUID, year)
		if err != nil {
			return err
		}
		if err := keeper.Reset(ctx, l, *req.AnnualRemaining, *req.AbsenceRemaining); err != nil {
			return err
		}
		resp = mapToResponse(*l)
		return nil
	})
	if err != nil {
		log.Warn("reset balance failed", zap.String("employee_id", employeeID), zap.Error(err))
		return LedgerResponse{}, err
	}

	s.cache.Invalidate(ctx, employeeID, year)
	log.Info("reset balance success",
		zap.String("employee_id", employeeID),
		zap.Int("year", year),
	)
	return resp, nil
}

func (s *service) parseKey(employeeID string, year int) (uuid.UUID, int, error) {
	empUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return uuid.Nil, 0, balanceerrors.ErrInvalidEmployeeID
	}
	if year == 0 {
		year = s.now().Year()
	}
	if year < 1970 || year > 9999 {
		return uuid.Nil, 0, balanceerrors.ErrInvalidYear
	}
	return empUUID, year, nil
}
