package employee

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-leavedesk/internal/balance"
	employeeerrors "go-leavedesk/internal/employee/errors"
	"go-leavedesk/internal/domain"
	"go-leavedesk/internal/events"
	"go-leavedesk/internal/messaging/kafka"
	"go-leavedesk/internal/shared/contextutil"
	"go-leavedesk/internal/shared/dbtx"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	EnsureForIdentity(ctx context.Context, actor contextutil.Actor) (EmployeeResponse, error)
	Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetAll(ctx context.Context, q string) ([]EmployeeResponse, error)
	GetByID(ctx context.Context, id string) (EmployeeResponse, error)
	Update(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	tx        *dbtx.Runner
	repo      Repository
	keeper    *balance.Keeper
	outbox    kafka.OutboxRepository
	cache     balance.Cache
	matricule func() string
	now       func() time.Time
	logger    *zap.Logger
}

type Option func(*service)

// WithMatriculeSource replaces the random registration number generator.
func WithMatriculeSource(draw func() string) Option {
	return func(s *service) { s.matricule = draw }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(
	tx *dbtx.Runner,
	repo Repository,
	keeper *balance.Keeper,
	outboxRepo kafka.OutboxRepository,
	cache balance.Cache,
	logger *zap.Logger,
	opts ...Option,
) Service {
	l := zap.L().Named("employee.service")
	if logger != nil {
		l = logger.Named("employee.service")
	}
	if cache == nil {
		cache = balance.NewCache(nil, 0)
	}
	s := &service{
		tx:        tx,
		repo:      repo,
		keeper:    keeper,
		outbox:    outboxRepo,
		cache:     cache,
		matricule: RandomMatricule,
		now:       time.Now,
		logger:    l,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureForIdentity returns the employee linked to actor, provisioning one
// together with its current-year ledger when none exists yet.
func (s *service) EnsureForIdentity(ctx context.Context, actor contextutil.Actor) (EmployeeResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	if actor.UserID == "" {
		return EmployeeResponse{}, employeeerrors.ErrMissingIdentity
	}

	if actor.EmployeeID != "" {
		if id, err := uuid.Parse(actor.EmployeeID); err == nil {
			empl, err := s.repo.FindByID(ctx, id)
			if err == nil {
				return mapToResponse(*empl), nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return EmployeeResponse{}, err
			}
		}
	}

	empl, err := s.repo.FindByUserID(ctx, actor.UserID)
	if err == nil {
		return mapToResponse(*empl), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error("ensure employee lookup failed", zap.String("user_id", actor.UserID), zap.Error(err))
		return EmployeeResponse{}, err
	}

	role := actor.Role
	if !domain.IsValidRole(role) {
		role = domain.RoleEmployee
	}
	first, last := splitName(actor.Name)
	if first == "" {
		first = actor.UserID
	}

	log.Info("provisioning employee for identity", zap.String("user_id", actor.UserID), zap.String("role", role))
	resp, err := s.create(ctx, &actor.UserID, first, last, role, "", "", nil)
	if errors.Is(err, employeeerrors.ErrEmployeeAlreadyExists) {
		// lost the race against a concurrent provisioning of the same identity
		empl, err := s.repo.FindByUserID(ctx, actor.UserID)
		if err != nil {
			return EmployeeResponse{}, mapRepositoryError(err)
		}
		return mapToResponse(*empl), nil
	}
	return resp, err
}

func (s *service) Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("create employee requested",
		zap.String("role", req.Role),
		zap.String("grade", req.Grade),
	)

	if !domain.IsValidRole(req.Role) {
		return EmployeeResponse{}, employeeerrors.ErrInvalidRole
	}
	startDate, err := parseOptionalDate(req.ServiceStartDate)
	if err != nil {
		log.Warn("create employee invalid service_start_date", zap.String("service_start_date", req.ServiceStartDate))
		return EmployeeResponse{}, err
	}

	var userID *string
	if uid := strings.TrimSpace(req.UserID); uid != "" {
		userID = &uid
	}

	return s.create(ctx, userID, req.FirstName, req.LastName, req.Role, req.Grade, req.PersonnelType, startDate)
}

func (s *service) create(
	ctx context.Context,
	userID *string,
	first, last, role, grade, personnelType string,
	startDate *time.Time,
) (EmployeeResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	var empl *Employee

	err := s.tx.Run(ctx, func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)
		matricule, err := allocateMatricule(ctx, qtx, s.matricule)
		if err != nil {
			return err
		}

		empl = &Employee{
			ID:               uuid.New(),
			UserID:           userID,
			Matricule:        matricule,
			FirstName:        strings.TrimSpace(first),
			LastName:         strings.TrimSpace(last),
			Role:             role,
			Grade:            strings.ToUpper(strings.TrimSpace(grade)),
			PersonnelType:    personnelType,
			ServiceStartDate: startDate,
		}
		if err := qtx.Create(ctx, empl); err != nil {
			return mapRepositoryError(err)
		}

		if _, err := s.keeper.WithTx(tx).GetOrCreate(ctx, empl.ID, s.now().Year()); err != nil {
			return err
		}

		return s.queueEvent(ctx, tx, events.EmployeeLifecycleEvent{
			EventType:  events.EmployeeCreated,
			EmployeeID: empl.ID.String(),
			Role:       empl.Role,
			Grade:      empl.Grade,
		})
	})
	if err != nil {
		log.Warn("create employee failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	log.Info("create employee success",
		zap.String("employee_id", empl.ID.String()),
		zap.String("matricule", empl.Matricule),
	)
	return mapToResponse(*empl), nil
}

func (s *service) GetAll(ctx context.Context, q string) ([]EmployeeResponse, error) {
	s.logger.Debug("get all employees requested", zap.String("q", q))
	emps, err := s.repo.FindAll(ctx, strings.ToLower(strings.TrimSpace(q)))
	if err != nil {
		s.logger.Error("get all employees failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(emps), nil
}

func (s *service) GetByID(ctx context.Context, id string) (EmployeeResponse, error) {
	empID, err := uuid.Parse(id)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	empl, err := s.repo.FindByID(ctx, empID)
	if err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*empl), nil
}

// Update changes the employee record. A role or grade change re-applies the
// balance policy to the current-year ledger in the same transaction.
func (s *service) Update(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	empID, err := uuid.Parse(id)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}
	if !domain.IsValidRole(req.Role) {
		return EmployeeResponse{}, employeeerrors.ErrInvalidRole
	}
	startDate, err := parseOptionalDate(req.ServiceStartDate)
	if err != nil {
		return EmployeeResponse{}, err
	}

	log.Debug("update employee requested", zap.String("employee_id", id))

	var (
		empl          *Employee
		policyChanged bool
	)
	year := s.now().Year()
	err = s.tx.Run(ctx, func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)
		current, err := qtx.FindByID(ctx, empID)
		if err != nil {
			return mapRepositoryError(err)
		}

		prevRole, prevGrade := current.Role, current.Grade
		current.FirstName = strings.TrimSpace(req.FirstName)
		current.LastName = strings.TrimSpace(req.LastName)
		current.Role = req.Role
		current.Grade = strings.ToUpper(strings.TrimSpace(req.Grade))
		current.PersonnelType = req.PersonnelType
		current.ServiceStartDate = startDate
		if err := qtx.Update(ctx, current); err != nil {
			return mapRepositoryError(err)
		}
		empl = current

		policyChanged = prevRole != current.Role || prevGrade != current.Grade
		if !policyChanged {
			return nil
		}

		if _, err := s.keeper.WithTx(tx).ApplyPolicy(ctx, empID, year, current.Role, current.Grade); err != nil {
			return err
		}
		return s.queueEvent(ctx, tx, events.EmployeeLifecycleEvent{
			EventType:     events.EmployeeProfileChanged,
			EmployeeID:    empID.String(),
			Role:          current.Role,
			Grade:         current.Grade,
			PreviousRole:  prevRole,
			PreviousGrade: prevGrade,
		})
	})
	if err != nil {
		log.Warn("update employee failed", zap.String("employee_id", id), zap.Error(err))
		return EmployeeResponse{}, err
	}

	if policyChanged {
		s.cache.Invalidate(ctx, id, year)
	}
	log.Info("update employee success",
		zap.String("employee_id", id),
		zap.Bool("policy_reapplied", policyChanged),
	)
	return mapToResponse(*empl), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	log := contextutil.GetLogger(ctx, s.logger)
	empID, err := uuid.Parse(id)
	if err != nil {
		return employeeerrors.ErrInvalidEmployeeID
	}

	err = s.tx.Run(ctx, func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)
		active, err := qtx.CountActiveLeaves(ctx, empID)
		if err != nil {
			return err
		}
		if active > 0 {
			return employeeerrors.ErrEmployeeHasActiveLeaves
		}
		return mapRepositoryError(qtx.Delete(ctx, empID))
	})
	if err != nil {
		log.Warn("delete employee failed", zap.String("employee_id", id), zap.Error(err))
		return err
	}

	log.Info("delete employee success", zap.String("employee_id", id))
	return nil
}

func (s *service) queueEvent(ctx context.Context, tx *gorm.DB, evt events.EmployeeLifecycleEvent) error {
	if s.outbox == nil {
		return nil
	}
	evt.Source = events.SourceLeaveDesk
	evt.OccurredAt = s.now().UTC()

	row, err := kafka.NewOutboxEvent(ctx, events.AggregateEmployee, evt.EmployeeID, evt.EventType, events.EmployeeLifecycleTopic, evt)
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Create(ctx, row)
}

func parseOptionalDate(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, employeeerrors.ErrInvalidServiceStartDate
	}
	return &t, nil
}
