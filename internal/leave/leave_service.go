package leave

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"go-leavedesk/internal/audit"
	"go-leavedesk/internal/balance"
	"go-leavedesk/internal/domain"
	"go-leavedesk/internal/events"
	leaveerrors "go-leavedesk/internal/leave/errors"
	"go-leavedesk/internal/messaging/kafka"
	"go-leavedesk/internal/reviewer"
	"go-leavedesk/internal/shared/contextutil"
	"go-leavedesk/internal/shared/dbtx"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Caller is who an operation runs for. EmployeeID is the caller's own
// employee record; ManageAll lifts the restriction to requests of that
// record.
type Caller struct {
	UserID     string
	EmployeeID string
	Name       string
	ManageAll  bool
}

func (c Caller) displayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.UserID
}

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, caller Caller, req CreateLeaveRequest) (LeaveResponse, error)
	GetAll(ctx context.Context, caller Caller, filter ListFilter) ([]LeaveResponse, error)
	GetByID(ctx context.Context, caller Caller, id string) (LeaveResponse, error)
	History(ctx context.Context, caller Caller, id string) ([]audit.EntryResponse, error)
	Update(ctx context.Context, caller Caller, id string, req UpdateLeaveRequest) (LeaveResponse, error)
	Submit(ctx context.Context, caller Caller, id string) (LeaveResponse, error)
	Approve(ctx context.Context, caller Caller, id, comment string) (LeaveResponse, error)
	Reject(ctx context.Context, caller Caller, id, comment string) (LeaveResponse, error)
	Decide(ctx context.Context, caller Caller, id string, req DecisionRequest) (LeaveResponse, error)
	Cancel(ctx context.Context, caller Caller, id string) (LeaveResponse, error)
	Delete(ctx context.Context, caller Caller, id string) error
}

type service struct {
	tx        *dbtx.Runner
	repo      Repository
	keeper    *balance.Keeper
	audit     audit.Repository
	reviewers reviewer.Resolver
	outbox    kafka.OutboxRepository
	cache     balance.Cache
	now       func() time.Time
	logger    *zap.Logger
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(
	tx *dbtx.Runner,
	repo Repository,
	keeper *balance.Keeper,
	auditRepo audit.Repository,
	reviewers reviewer.Resolver,
	outboxRepo kafka.OutboxRepository,
	cache balance.Cache,
	logger *zap.Logger,
	opts ...Option,
) Service {
	l := zap.L().Named("leave.service")
	if logger != nil {
		l = logger.Named("leave.service")
	}
	if cache == nil {
		cache = balance.NewCache(nil, 0)
	}
	s := &service{
		tx:        tx,
		repo:      repo,
		keeper:    keeper,
		audit:     auditRepo,
		reviewers: reviewers,
		outbox:    outboxRepo,
		cache:     cache,
		now:       time.Now,
		logger:    l,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, caller Caller, req CreateLeaveRequest) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("create leave requested",
		zap.String("actor_id", caller.UserID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("leave_type", req.LeaveType),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	employeeID, err := targetEmployee(caller, req.EmployeeID)
	if err != nil {
		return LeaveResponse{}, err
	}
	leaveType, err := parseLeaveType(req.LeaveType)
	if err != nil {
		return LeaveResponse{}, err
	}
	start, end, days, err := parsePeriod(req.StartDate, req.EndDate)
	if err != nil {
		log.Warn("create leave invalid period", zap.Error(err))
		return LeaveResponse{}, err
	}

	var (
		l      *Leave
		ledger *balance.Ledger
	)
	err = s.tx.Run(ctx, func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)
		keeper := s.keeper.WithTx(tx)

		ledger, err = keeper.GetOrCreate(ctx, employeeID, start.Year())
		if err != nil {
			return err
		}
		if err := s.checkRequest(ctx, qtx, employeeID, leaveType, start, end, days, nil); err != nil {
			return err
		}
		if err := keeper.Debit(ctx, ledger, leaveType, days); err != nil {
			return err
		}

		rv, err := s.reviewers.WithTx(tx).AssignReviewer(ctx, employeeID)
		if err != nil {
			return err
		}

		l = &Leave{
			ID:             uuid.New(),
			EmployeeID:     employeeID,
			RequesterID:    caller.UserID,
			ReviewerID:     rv.ID,
			LeaveType:      leaveType,
			StartDate:      start,
			EndDate:        end,
			TotalDays:      days,
			Reason:         strings.TrimSpace(req.Reason),
			AttachmentPath: req.AttachmentPath,
			Status:         StatusPending,
		}
		if err := qtx.Create(ctx, l); err != nil {
			return err
		}
		if err := qtx.CreateValidation(ctx, &Validation{
			ID:         uuid.New(),
			LeaveID:    l.ID,
			ReviewerID: rv.ID,
		}); err != nil {
			return err
		}
		return s.record(ctx, tx, l, caller, audit.ActionCreated, events.LeaveCreated)
	})
	if err != nil {
		log.Warn("create leave failed", zap.String("employee_id", employeeID.String()), zap.Error(err))
		return LeaveResponse{}, err
	}

	s.cache.Invalidate(ctx, employeeID.String(), l.Year())
	log.Info("create leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("employee_id", employeeID.String()),
		zap.String("leave_type", string(leaveType)),
		zap.Int("total_days", days),
	)
	return withBalance(mapToResponse(*l), ledger), nil
}

func (s *service) GetAll(ctx context.Context, caller Caller, filter ListFilter) ([]LeaveResponse, error) {
	if !caller.ManageAll {
		if caller.EmployeeID == "" {
			return []LeaveResponse{}, nil
		}
		filter.EmployeeID = caller.EmployeeID
	} else if filter.EmployeeID != "" {
		if _, err := uuid.Parse(filter.EmployeeID); err != nil {
			return nil, leaveerrors.ErrInvalidEmployeeID
		}
	}
	filter.Status = strings.ToUpper(strings.TrimSpace(filter.Status))
	filter.LeaveType = strings.ToUpper(strings.TrimSpace(filter.LeaveType))

	leaves, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("get all leaves failed", zap.Error(err))
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) GetByID(ctx context.Context, caller Caller, id string) (LeaveResponse, error) {
	l, err := s.find(ctx, caller, id)
	if err != nil {
		return LeaveResponse{}, err
	}

	resp := mapToResponse(*l)
	v, err := s.repo.FindValidation(ctx, l.ID)
	switch {
	case err == nil:
		resp.Validation = mapValidation(*v)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return LeaveResponse{}, err
	}
	return resp, nil
}

func (s *service) History(ctx context.Context, caller Caller, id string) ([]audit.EntryResponse, error) {
	l, err := s.find(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.audit.ListByLeave(ctx, l.ID)
	if err != nil {
		s.logger.Error("list leave history failed", zap.String("leave_id", id), zap.Error(err))
		return nil, err
	}
	return audit.MapToListResponse(entries), nil
}

// Update edits the dates, type or details of a request that still holds
// balance. The old reservation is given back and the new one taken in the
// same transaction, so a failed check leaves everything as it was.
func (s *service) Update(ctx context.Context, caller Caller, id string, req UpdateLeaveRequest) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("update leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", caller.UserID),
		zap.String("leave_type", req.LeaveType),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	leaveID, err := parseLeaveID(id)
	if err != nil {
		return LeaveResponse{}, err
	}
	leaveType, err := parseLeaveType(req.LeaveType)
	if err != nil {
		return LeaveResponse{}, err
	}
	start, end, days, err := parsePeriod(req.StartDate, req.EndDate)
	if err != nil {
		log.Warn("update leave invalid period", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	var (
		l        *Leave
		ledger   *balance.Ledger
		oldYear  int
		newYear  = start.Year()
		employee uuid.UUID
	)
	err = s.tx.Run(ctx, func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)
		keeper := s.keeper.WithTx(tx)

		current, err := s.lockOwned(ctx, qtx, caller, leaveID)
		if err != nil {
			return err
		}
		if !current.HoldsBalance() {
			return leaveerrors.ErrInvalidStatusTransition
		}
		employee = current.EmployeeID
		oldYear = current.Year()

		ledgers, err := lockLedgers(ctx, keeper, employee, oldYear, newYear)
		if err != nil {
			return err
		}
		if _, err := keeper.Credit(ctx, ledgers[oldYear], current.LeaveType, current.TotalDays); err != nil {
			return err
		}
		if err := s.checkRequest(ctx, qtx, employee, leaveType, start, end, days, &current.ID); err != nil {
			return err
		}
		ledger = ledgers[newYear]
		if err := keeper.Debit(ctx, ledger, leaveType, days); err != nil {
			return err
		}

		current.LeaveType = leaveType
		current.StartDate = start
		current.EndDate = end
		current.TotalDays = days
		current.Reason = strings.TrimSpace(req.Reason)
		current.AttachmentPath = req.AttachmentPath
		if err := qtx.Update(ctx, current); err != nil {
			return err
		}
		l = current
		return s.record(ctx, tx, l, caller, audit.ActionUpdated, events.LeaveUpdated)
	})
	if err != nil {
		log.Warn("update leave failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	s.cache.Invalidate(ctx, employee.String(), oldYear, newYear)
	log.Info("update leave success",
		zap.String("leave_id", id),
		zap.String("status", l.Status),
		zap.Int("total_days", days),
	)
	return withBalance(mapToResponse(*l), ledger), nil
}

// Submit marks a pending request as explicitly submitted for review.
func (s *service) Submit(ctx context.Context, caller Caller, id string) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	leaveID, err := parseLeaveID(id)
	if err != nil {
		return LeaveResponse{}, err
	}

	var l *Leave
	err = s.tx.Run(ctx, func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)
		current, err := s.lockOwned(ctx, qtx, caller, leaveID)
		if err != nil {
			return err
		}
		if current.Status != StatusPending {
			return leaveerrors.ErrInvalidStatusTransition
		}

		now := s.now().UTC()
		current.SubmittedAt = &now
		if err := qtx.Update(ctx, current); err != nil {
			return err
		}
		l = current
		return s.record(ctx, tx, l, caller, audit.ActionSubmitted, events.LeaveSubmitted)
	})
	if err != nil {
		log.Warn("submit leave failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	log.Info("submit leave success", zap.String("leave_id", id))
	return mapToResponse(*l), nil
}

func (s *service) Approve(ctx context.Context, caller Caller, id, comment string) (LeaveResponse, error) {
	return s.Decide(ctx, caller, id, DecisionRequest{Decision: DecisionApproved, Comment: comment})
}

func (s *service) Reject(ctx context.Context, caller Caller, id, comment string) (LeaveResponse, error) {
	return s.Decide(ctx, caller, id, DecisionRequest{Decision: DecisionRejected, Comment: comment})
}

// Decide records the reviewer decision on a pending request. A rejection
// gives the stored day count back to the ledger. A request is decided once.
func (s *service) Decide(ctx context.Context, caller Caller, id string, req DecisionRequest) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("decide leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", caller.UserID),
		zap.String("decision", req.Decision),
	)

	leaveID, err := parseLeaveID(id)
	if err != nil {
		return LeaveResponse{}, err
	}
	decision := strings.ToUpper(strings.TrimSpace(req.Decision))
	if decision != DecisionApproved && decision != DecisionRejected {
		return LeaveResponse{}, leaveerrors.ErrInvalidDecision
	}
	deciderID, err := uuid.Parse(caller.EmployeeID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrMissingEmployee
	}

	var (
		l      *Leave
		v      *Validation
		ledger *balance.Ledger
	)
	err = s.tx.Run(ctx, func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)
		current, err := qtx.FindForUpdate(ctx, leaveID)
		if err != nil {
			return mapRepositoryError(err)
		}
		switch current.Status {
		case StatusPending:
		case StatusApproved, StatusRejected:
			return leaveerrors.ErrLeaveAlreadyDecided
		default:
			return leaveerrors.ErrInvalidStatusTransition
		}

		rv, err := s.reviewers.WithTx(tx).EnsureReviewer(ctx, deciderID, caller.displayName())
		if err != nil {
			return err
		}

		now := s.now().UTC()
		v, err = qtx.FindValidation(ctx, current.ID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			v = &Validation{ID: uuid.New(), LeaveID: current.ID}
		case err != nil:
			return err
		case v.Decision != nil:
			return leaveerrors.ErrLeaveAlreadyDecided
		}
		v.ReviewerID = rv.ID
		v.Decision = &decision
		v.Comment = strings.TrimSpace(req.Comment)
		v.DecidedAt = &now
		if err := qtx.SaveValidation(ctx, v); err != nil {
			return err
		}

		action, eventType := audit.ActionApproved, events.LeaveApproved
		if decision == DecisionRejected {
			action, eventType = audit.ActionRejected, events.LeaveRejected
			keeper := s.keeper.WithTx(tx)
			ledger, err = keeper.GetOrCreate(ctx, current.EmployeeID, current.Year())
			if err != nil {
				return err
			}
			if _, err := keeper.Credit(ctx, ledger, current.LeaveType, current.TotalDays); err != nil {
				return err
			}
		}

		current.Status = decision
		current.ReviewerID = rv.ID
		current.DecidedAt = &now
		if err := qtx.Update(ctx, current); err != nil {
			return err
		}
		l = current
		return s.record(ctx, tx, l, caller, action, eventType)
	})
	if err != nil {
		log.Warn("decide leave failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	if ledger != nil {
		s.cache.Invalidate(ctx, l.EmployeeID.String(), l.Year())
	}
	log.Info("decide leave success",
		zap.String("leave_id", id),
		zap.String("decision", decision),
	)
	resp := withBalance(mapToResponse(*l), ledger)
	resp.Validation = mapValidation(*v)
	return resp, nil
}

// Cancel withdraws a pending or approved request and restores its days.
func (s *service) Cancel(ctx context.Context, caller Caller, id string) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	leaveID, err := parseLeaveID(id)
	if err != nil {
		return LeaveResponse{}, err
	}

	var (
		l      *Leave
		ledger *balance.Ledger
	)
	err = s.tx.Run(ctx, func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)
		current, err := s.lockOwned(ctx, qtx, caller, leaveID)
		if err != nil {
			return err
		}
		if !current.HoldsBalance() {
			return leaveerrors.ErrInvalidStatusTransition
		}

		ledger, err = s.release(ctx, tx, current)
		if err != nil {
			return err
		}
		current.Status = StatusCancelled
		if err := qtx.Update(ctx, current); err != nil {
			return err
		}
		l = current
		return s.record(ctx, tx, l, caller, audit.ActionCancelled, events.LeaveCancelled)
	})
	if err != nil {
		log.Warn("cancel leave failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	s.cache.Invalidate(ctx, l.EmployeeID.String(), l.Year())
	log.Info("cancel leave success", zap.String("leave_id", id), zap.Int("restored_days", l.TotalDays))
	return withBalance(mapToResponse(*l), ledger), nil
}

// Delete removes a request in any state. Days still reserved by it are
// restored first.
func (s *service) Delete(ctx context.Context, caller Caller, id string) error {
	log := contextutil.GetLogger(ctx, s.logger)
	leaveID, err := parseLeaveID(id)
	if err != nil {
		return err
	}

	var l *Leave
	err = s.tx.Run(ctx, func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)
		current, err := qtx.FindForUpdate(ctx, leaveID)
		if err != nil {
			return mapRepositoryError(err)
		}

		if current.HoldsBalance() {
			if _, err := s.release(ctx, tx, current); err != nil {
				return err
			}
			current.Status = StatusCancelled
			if err := qtx.Update(ctx, current); err != nil {
				return err
			}
		}
		l = current
		if err := s.record(ctx, tx, l, caller, audit.ActionCancelled, events.LeaveDeleted); err != nil {
			return err
		}
		return mapRepositoryError(qtx.Delete(ctx, current.ID))
	})
	if err != nil {
		log.Warn("delete leave failed", zap.String("leave_id", id), zap.Error(err))
		return err
	}

	s.cache.Invalidate(ctx, l.EmployeeID.String(), l.Year())
	log.Info("delete leave success", zap.String("leave_id", id))
	return nil
}

// checkRequest enforces the overlap and first-request rules. excludeID is
// the request being edited.
func (s *service) checkRequest(
	ctx context.Context,
	qtx Repository,
	employeeID uuid.UUID,
	leaveType domain.LeaveType,
	start, end time.Time,
	days int,
	excludeID *uuid.UUID,
) error {
	overlap, err := qtx.HasOverlappingPeriod(ctx, employeeID, start, end, excludeID)
	if err != nil {
		return err
	}
	if overlap {
		return leaveerrors.ErrLeaveOverlap
	}

	want, ok := leaveType.FirstRequestDays()
	if !ok {
		return nil
	}
	prior, err := qtx.CountActiveByType(ctx, employeeID, leaveType, excludeID)
	if err != nil {
		return err
	}
	if prior == 0 && days != want {
		s.logger.Warn("first request duration rejected",
			zap.String("employee_id", employeeID.String()),
			zap.String("leave_type", string(leaveType)),
			zap.Int("days", days),
			zap.Int("required", want),
		)
		return leaveerrors.ErrFirstRequestDuration
	}
	return nil
}

// release credits the stored day count of l back to its ledger.
func (s *service) release(ctx context.Context, tx *gorm.DB, l *Leave) (*balance.Ledger, error) {
	keeper := s.keeper.WithTx(tx)
	ledger, err := keeper.GetOrCreate(ctx, l.EmployeeID, l.Year())
	if err != nil {
		return nil, err
	}
	if _, err := keeper.Credit(ctx, ledger, l.LeaveType, l.TotalDays); err != nil {
		return nil, err
	}
	return ledger, nil
}

func (s *service) record(ctx context.Context, tx *gorm.DB, l *Leave, caller Caller, action audit.Action, eventType string) error {
	now := s.now().UTC()
	if err := s.audit.WithTx(tx).Append(ctx, &audit.Entry{
		LeaveID:    l.ID,
		Action:     action,
		ActorID:    caller.UserID,
		ActorName:  caller.displayName(),
		OccurredAt: now,
	}); err != nil {
		return err
	}

	if s.outbox == nil {
		return nil
	}
	row, err := kafka.NewOutboxEvent(ctx, events.AggregateLeave, l.ID.String(), eventType, events.LeaveLifecycleTopic, events.LeaveLifecycleEvent{
		EventType:  eventType,
		LeaveID:    l.ID.String(),
		EmployeeID: l.EmployeeID.String(),
		LeaveType:  string(l.LeaveType),
		Status:     l.Status,
		StartDate:  l.StartDate.Format(dateLayout),
		EndDate:    l.EndDate.Format(dateLayout),
		TotalDays:  l.TotalDays,
		ActorID:    caller.UserID,
		OccurredAt: now,
	})
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Create(ctx, row)
}

func (s *service) find(ctx context.Context, caller Caller, id string) (*Leave, error) {
	leaveID, err := parseLeaveID(id)
	if err != nil {
		return nil, err
	}
	l, err := s.repo.FindByID(ctx, leaveID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if err := authorize(caller, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *service) lockOwned(ctx context.Context, qtx Repository, caller Caller, id uuid.UUID) (*Leave, error) {
	l, err := qtx.FindForUpdate(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if err := authorize(caller, l); err != nil {
		return nil, err
	}
	return l, nil
}

// lockLedgers locks the ledgers of the given years in ascending year order.
func lockLedgers(ctx context.Context, keeper *balance.Keeper, employeeID uuid.UUID, years ...int) (map[int]*balance.Ledger, error) {
	sorted := slices.Clone(years)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	ledgers := make(map[int]*balance.Ledger, len(sorted))
	for _, year := range sorted {
		l, err := keeper.GetOrCreate(ctx, employeeID, year)
		if err != nil {
			return nil, err
		}
		ledgers[year] = l
	}
	return ledgers, nil
}

func authorize(caller Caller, l *Leave) error {
	if caller.ManageAll || l.EmployeeID.String() == caller.EmployeeID {
		return nil
	}
	return leaveerrors.ErrLeaveForbidden
}

func targetEmployee(caller Caller, requested string) (uuid.UUID, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		requested = caller.EmployeeID
	}
	if requested == "" {
		return uuid.Nil, leaveerrors.ErrMissingEmployee
	}
	id, err := uuid.Parse(requested)
	if err != nil {
		return uuid.Nil, leaveerrors.ErrInvalidEmployeeID
	}
	if !caller.ManageAll && id.String() != caller.EmployeeID {
		return uuid.Nil, leaveerrors.ErrLeaveForbidden
	}
	return id, nil
}

func parseLeaveID(id string) (uuid.UUID, error) {
	leaveID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, leaveerrors.ErrInvalidLeaveID
	}
	return leaveID, nil
}

func parseLeaveType(v string) (domain.LeaveType, error) {
	t := domain.LeaveType(strings.ToUpper(strings.TrimSpace(v)))
	if !t.IsValid() {
		return "", leaveerrors.ErrInvalidLeaveType
	}
	return t, nil
}

func mapRepositoryError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return leaveerrors.ErrLeaveNotFound
	}
	return err
}

func withBalance(resp LeaveResponse, ledger *balance.Ledger) LeaveResponse {
	if ledger != nil {
		lr := balance.NewLedgerResponse(*ledger)
		resp.Balance = &lr
	}
	return resp
}
