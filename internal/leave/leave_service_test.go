package leave_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"go-leavedesk/internal/audit"
	"go-leavedesk/internal/balance"
	balanceerrors "go-leavedesk/internal/balance/errors"
	"go-leavedesk/internal/domain"
	"go-leavedesk/internal/employee"
	"go-leavedesk/internal/events"
	"go-leavedesk/internal/leave"
	leaveerrors "go-leavedesk/internal/leave/errors"
	"go-leavedesk/internal/messaging/kafka"
	"go-leavedesk/internal/reviewer"
	"go-leavedesk/internal/shared/connection"
	"go-leavedesk/internal/shared/dbtx"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)

// tickingClock starts at fixedNow and moves one second per reading so audit
// entries keep a strict order.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := fixedNow
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

type engine struct {
	db              *gorm.DB
	service         leave.Service
	defaultReviewer reviewer.Reviewer
	hr              leave.Caller
	admin           leave.Caller
}

func setupEngine(t *testing.T) *engine {
	t.Helper()
	db, err := connection.OpenSQLite("file:leave_"+uuid.NewString()+"?mode=memory&cache=shared", time.Second)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&employee.Employee{},
		&balance.Ledger{},
		&leave.Leave{},
		&leave.Validation{},
		&audit.Entry{},
		&reviewer.Reviewer{},
		&kafka.OutboxEvent{},
	))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	logger := zap.NewNop()
	svc := leave.NewService(
		dbtx.NewRunner(db, dbtx.DefaultOptions(), logger),
		leave.NewRepository(db),
		balance.NewKeeper(balance.NewRepository(db), balance.DefaultPolicyTable(), logger),
		audit.NewRepository(db),
		reviewer.NewResolver(reviewer.NewRepository(db), uuid.Nil, logger),
		kafka.NewOutboxRepository(db),
		nil,
		logger,
		leave.WithClock(tickingClock()),
	)

	e := &engine{db: db, service: svc}
	reviewerEmp := e.seedEmployee(t, domain.RoleHR, "Awa", "Diallo")
	e.defaultReviewer = reviewer.Reviewer{ID: uuid.New(), EmployeeID: reviewerEmp, FullName: "Awa Diallo", IsDefault: true}
	require.NoError(t, db.Create(&e.defaultReviewer).Error)

	hrID := e.seedEmployee(t, domain.RoleHR, "Moussa", "Kone")
	e.hr = leave.Caller{UserID: "user-hr", EmployeeID: hrID.String(), Name: "Moussa Kone", ManageAll: true}
	adminID := e.seedEmployee(t, domain.RoleAdmin, "Fatou", "Sow")
	e.admin = leave.Caller{UserID: "user-admin", EmployeeID: adminID.String(), Name: "Fatou Sow", ManageAll: true}
	return e
}

func (e *engine) seedEmployee(t *testing.T, role, first, last string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, e.db.Create(&employee.Employee{
		ID:        id,
		Matricule: fmt.Sprintf("%08d", rand.IntN(90000000)+10000000),
		FirstName: first,
		LastName:  last,
		Role:      role,
	}).Error)
	return id
}

// seedStaff creates an employe with a 2024 ledger holding annual/absence
// days and returns the caller acting as that employee.
func (e *engine) seedStaff(t *testing.T, annual, absence int) leave.Caller {
	t.Helper()
	id := e.seedEmployee(t, domain.RoleEmployee, "Ibrahima", "Ba")
	require.NoError(t, e.db.Create(&balance.Ledger{
		ID:               uuid.New(),
		EmployeeID:       id,
		Year:             2024,
		AnnualRemaining:  annual,
		AbsenceRemaining: absence,
		AnnualCeiling:    30,
		AbsenceCeiling:   15,
	}).Error)
	return leave.Caller{UserID: "user-" + id.String()[:8], EmployeeID: id.String(), Name: "Ibrahima Ba"}
}

// seedApproved inserts an approved request directly, as history that makes
// later requests of the type non-first.
func (e *engine) seedApproved(t *testing.T, who leave.Caller, leaveType domain.LeaveType, start, end string, days int) {
	t.Helper()
	s, _ := time.Parse("2006-01-02", start)
	en, _ := time.Parse("2006-01-02", end)
	require.NoError(t, e.db.Create(&leave.Leave{
		ID:          uuid.New(),
		EmployeeID:  uuid.MustParse(who.EmployeeID),
		RequesterID: who.UserID,
		ReviewerID:  e.defaultReviewer.ID,
		LeaveType:   leaveType,
		StartDate:   s,
		EndDate:     en,
		TotalDays:   days,
		Status:      leave.StatusApproved,
	}).Error)
}

func (e *engine) ledger(t *testing.T, who leave.Caller, year int) balance.Ledger {
	t.Helper()
	var l balance.Ledger
	require.NoError(t, e.db.Where("employee_id = ? AND year = ?", uuid.MustParse(who.EmployeeID), year).First(&l).Error)
	return l
}

func (e *engine) leaveEvents(t *testing.T) []events.LeaveLifecycleEvent {
	t.Helper()
	var rows []kafka.OutboxEvent
	require.NoError(t, e.db.Where("topic = ?", events.LeaveLifecycleTopic).Order("created_at ASC").Find(&rows).Error)
	out := make([]events.LeaveLifecycleEvent, len(rows))
	for i, r := range rows {
		require.NoError(t, json.Unmarshal(r.Payload, &out[i]))
	}
	return out
}

func annual(start, end string) leave.CreateLeaveRequest {
	return leave.CreateLeaveRequest{LeaveType: "ANNUAL", StartDate: start, EndDate: end, Reason: "holiday"}
}

func absence(start, end string) leave.CreateLeaveRequest {
	return leave.CreateLeaveRequest{LeaveType: "ABSENCE", StartDate: start, EndDate: end}
}

func actions(t *testing.T, svc leave.Service, who leave.Caller, id string) []string {
	t.Helper()
	entries, err := svc.History(context.Background(), who, id)
	require.NoError(t, err)
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Action
	}
	return out
}

func TestDayCount(t *testing.T) {
	day := func(v string) time.Time {
		d, err := time.Parse("2006-01-02", v)
		require.NoError(t, err)
		return d
	}

	cases := []struct {
		start, end string
		want       int
	}{
		{"2024-03-01", "2024-03-05", 5},
		{"2024-03-01", "2024-03-01", 1},
		{"2024-02-28", "2024-03-01", 3},
		{"2023-12-30", "2024-01-02", 4},
	}
	for _, tc := range cases {
		got, err := leave.DayCount(day(tc.start), day(tc.end))
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s..%s", tc.start, tc.end)

		again, _ := leave.DayCount(day(tc.start), day(tc.end))
		assert.Equal(t, got, again)
	}

	_, err := leave.DayCount(day("2024-03-05"), day("2024-03-01"))
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateRange)

	withClock := time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC)
	got, err := leave.DayCount(day("2024-03-01"), withClock)
	require.NoError(t, err)
	assert.Equal(t, 5, got)
}

func TestLeaveService_AnnualSequence(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)
	staff := e.seedStaff(t, 30, 15)

	first, err := e.service.Create(ctx, staff, annual("2024-01-01", "2024-01-15"))
	require.NoError(t, err)
	assert.Equal(t, 15, first.TotalDays)
	assert.Equal(t, leave.StatusPending, first.Status)
	require.NotNil(t, first.Balance)
	assert.Equal(t, 15, first.Balance.AnnualRemaining)

	second, err := e.service.Create(ctx, staff, annual("2024-02-01", "2024-02-10"))
	require.NoError(t, err)
	assert.Equal(t, 10, second.TotalDays)
	assert.Equal(t, 5, e.ledger(t, staff, 2024).AnnualRemaining)

	_, err = e.service.Create(ctx, staff, annual("2024-03-01", "2024-03-10"))
	assert.ErrorIs(t, err, balanceerrors.ErrInsufficientBalance)
	assert.Equal(t, 5, e.ledger(t, staff, 2024).AnnualRemaining)

	var count int64
	require.NoError(t, e.db.Model(&leave.Leave{}).Where("employee_id = ?", uuid.MustParse(staff.EmployeeID)).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	evts := e.leaveEvents(t)
	require.Len(t, evts, 2)
	assert.Equal(t, events.LeaveCreated, evts[0].EventType)
	assert.Equal(t, first.ID, evts[0].LeaveID)
	assert.Equal(t, []string{"CREATED"}, actions(t, e.service, staff, first.ID))
}

func TestLeaveService_FirstRequestRule(t *testing.T) {
	ctx := context.Background()

	t.Run("annual must be exactly fifteen days", func(t *testing.T) {
		e := setupEngine(t)
		staff := e.seedStaff(t, 30, 15)

		_, err := e.service.Create(ctx, staff, annual("2024-01-01", "2024-01-10"))
		assert.ErrorIs(t, err, leaveerrors.ErrFirstRequestDuration)
		assert.Equal(t, 30, e.ledger(t, staff, 2024).AnnualRemaining)

		_, err = e.service.Create(ctx, staff, annual("2024-01-01", "2024-01-15"))
		require.NoError(t, err)
		assert.Equal(t, 15, e.ledger(t, staff, 2024).AnnualRemaining)
	})

	t.Run("absence must be exactly three days then any length", func(t *testing.T) {
		e := setupEngine(t)
		staff := e.seedStaff(t, 30, 15)

		_, err := e.service.Create(ctx, staff, absence("2024-04-01", "2024-04-02"))
		assert.ErrorIs(t, err, leaveerrors.ErrFirstRequestDuration)

		_, err = e.service.Create(ctx, staff, absence("2024-04-01", "2024-04-03"))
		require.NoError(t, err)
		assert.Equal(t, 12, e.ledger(t, staff, 2024).AbsenceRemaining)

		_, err = e.service.Create(ctx, staff, absence("2024-05-06", "2024-05-10"))
		require.NoError(t, err)
		assert.Equal(t, 7, e.ledger(t, staff, 2024).AbsenceRemaining)
	})

	t.Run("rejected history does not count", func(t *testing.T) {
		e := setupEngine(t)
		staff := e.seedStaff(t, 30, 15)

		first, err := e.service.Create(ctx, staff, annual("2024-01-01", "2024-01-15"))
		require.NoError(t, err)
		_, err = e.service.Reject(ctx, e.hr, first.ID, "busy period")
		require.NoError(t, err)

		_, err = e.service.Create(ctx, staff, annual("2024-02-01", "2024-02-05"))
		assert.ErrorIs(t, err, leaveerrors.ErrFirstRequestDuration)
	})

	t.Run("sick and maternity are exempt and untracked", func(t *testing.T) {
		e := setupEngine(t)
		staff := e.seedStaff(t, 30, 15)

		resp, err := e.service.Create(ctx, staff, leave.CreateLeaveRequest{LeaveType: "SICK", StartDate: "2024-03-04", EndDate: "2024-03-07"})
		require.NoError(t, err)
		assert.Equal(t, 4, resp.TotalDays)

		_, err = e.service.Create(ctx, staff, leave.CreateLeaveRequest{LeaveType: "MATERNITY", StartDate: "2024-06-01", EndDate: "2024-09-30"})
		require.NoError(t, err)

		l := e.ledger(t, staff, 2024)
		assert.Equal(t, 30, l.AnnualRemaining)
		assert.Equal(t, 15, l.AbsenceRemaining)
	})
}

func TestLeaveService_Create_Rejections(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)
	staff := e.seedStaff(t, 30, 15)

	_, err := e.service.Create(ctx, staff, annual("2024-01-15", "2024-01-01"))
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateRange)

	_, err = e.service.Create(ctx, staff, annual("01/02/2024", "2024-01-15"))
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateFormat)

	_, err = e.service.Create(ctx, staff, leave.CreateLeaveRequest{LeaveType: "UNPAID", StartDate: "2024-01-01", EndDate: "2024-01-02"})
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveType)

	other := e.seedStaff(t, 30, 15)
	req := annual("2024-01-01", "2024-01-15")
	req.EmployeeID = other.EmployeeID
	_, err = e.service.Create(ctx, staff, req)
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveForbidden)

	_, err = e.service.Create(ctx, leave.Caller{UserID: "ghost"}, annual("2024-01-01", "2024-01-15"))
	assert.ErrorIs(t, err, leaveerrors.ErrMissingEmployee)

	_, err = e.service.Create(ctx, staff, annual("2024-01-01", "2024-01-15"))
	require.NoError(t, err)
	_, err = e.service.Create(ctx, staff, annual("2024-01-10", "2024-01-14"))
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)
	assert.Equal(t, 15, e.ledger(t, staff, 2024).AnnualRemaining)

	t.Run("hr files on behalf of an employee", func(t *testing.T) {
		req := annual("2024-01-01", "2024-01-15")
		req.EmployeeID = other.EmployeeID
		resp, err := e.service.Create(ctx, e.hr, req)
		require.NoError(t, err)
		assert.Equal(t, other.EmployeeID, resp.EmployeeID)
		assert.Equal(t, e.hr.UserID, resp.RequesterID)
	})

	t.Run("ledger of a new year is provisioned from policy", func(t *testing.T) {
		resp, err := e.service.Create(ctx, staff, annual("2025-01-06", "2025-01-10"))
		require.NoError(t, err)
		require.NotNil(t, resp.Balance)
		assert.Equal(t, 2025, resp.Balance.Year)
		assert.Equal(t, 25, resp.Balance.AnnualRemaining)
	})
}

func TestLeaveService_ApproveThenCancelRestores(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)
	staff := e.seedStaff(t, 20, 15)
	e.seedApproved(t, staff, domain.LeaveTypeAnnual, "2024-01-01", "2024-01-15", 15)

	created, err := e.service.Create(ctx, staff, annual("2024-05-01", "2024-05-10"))
	require.NoError(t, err)
	assert.Equal(t, 10, e.ledger(t, staff, 2024).AnnualRemaining)

	got, err := e.service.GetByID(ctx, staff, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Validation)
	assert.Nil(t, got.Validation.Decision)
	assert.Equal(t, e.defaultReviewer.ID.String(), got.Validation.ReviewerID)

	approved, err := e.service.Approve(ctx, e.hr, created.ID, "enjoy")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, approved.Status)
	require.NotNil(t, approved.Validation)
	require.NotNil(t, approved.Validation.Decision)
	assert.Equal(t, leave.DecisionApproved, *approved.Validation.Decision)
	assert.Equal(t, "enjoy", approved.Validation.Comment)
	assert.NotEqual(t, e.defaultReviewer.ID.String(), approved.Validation.ReviewerID)
	assert.Equal(t, 10, e.ledger(t, staff, 2024).AnnualRemaining)

	var hrReviewer reviewer.Reviewer
	require.NoError(t, e.db.Where("employee_id = ?", uuid.MustParse(e.hr.EmployeeID)).First(&hrReviewer).Error)
	assert.Equal(t, hrReviewer.ID.String(), approved.ReviewerID)

	cancelled, err := e.service.Cancel(ctx, staff, created.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusCancelled, cancelled.Status)
	assert.Equal(t, 20, e.ledger(t, staff, 2024).AnnualRemaining)

	_, err = e.service.Cancel(ctx, staff, created.ID)
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusTransition)
	assert.Equal(t, 20, e.ledger(t, staff, 2024).AnnualRemaining)

	assert.Equal(t, []string{"CREATED", "APPROVED", "CANCELLED"}, actions(t, e.service, staff, created.ID))
}

func TestLeaveService_RejectRestoresAndDecidesOnce(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)
	staff := e.seedStaff(t, 30, 15)

	created, err := e.service.Create(ctx, staff, annual("2024-01-01", "2024-01-15"))
	require.NoError(t, err)
	assert.Equal(t, 15, e.ledger(t, staff, 2024).AnnualRemaining)

	rejected, err := e.service.Decide(ctx, e.hr, created.ID, leave.DecisionRequest{Decision: "REJECTED", Comment: "team is short"})
	require.NoError(t, err)
	assert.Equal(t, leave.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.Balance)
	assert.Equal(t, 30, rejected.Balance.AnnualRemaining)
	assert.Equal(t, 30, e.ledger(t, staff, 2024).AnnualRemaining)

	_, err = e.service.Approve(ctx, e.hr, created.ID, "")
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveAlreadyDecided)
	_, err = e.service.Reject(ctx, e.hr, created.ID, "")
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveAlreadyDecided)
	assert.Equal(t, 30, e.ledger(t, staff, 2024).AnnualRemaining)

	_, err = e.service.Cancel(ctx, staff, created.ID)
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusTransition)

	_, err = e.service.Decide(ctx, e.hr, created.ID, leave.DecisionRequest{Decision: "MAYBE"})
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidDecision)

	var validations []leave.Validation
	require.NoError(t, e.db.Where("leave_id = ?", uuid.MustParse(created.ID)).Find(&validations).Error)
	require.Len(t, validations, 1)
	require.NotNil(t, validations[0].Decision)
	assert.Equal(t, leave.DecisionRejected, *validations[0].Decision)

	evts := e.leaveEvents(t)
	assert.Equal(t, events.LeaveRejected, evts[len(evts)-1].EventType)
}

func TestLeaveService_DecideOnCancelled(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)
	staff := e.seedStaff(t, 30, 15)

	created, err := e.service.Create(ctx, staff, absence("2024-04-01", "2024-04-03"))
	require.NoError(t, err)
	_, err = e.service.Cancel(ctx, staff, created.ID)
	require.NoError(t, err)

	_, err = e.service.Approve(ctx, e.hr, created.ID, "")
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusTransition)
	assert.Equal(t, 15, e.ledger(t, staff, 2024).AbsenceRemaining)
}

func TestLeaveService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("failed sufficiency leaves ledger and request untouched", func(t *testing.T) {
		e := setupEngine(t)
		staff := e.seedStaff(t, 30, 15)

		_, err := e.service.Create(ctx, staff, annual("2024-01-01", "2024-01-15"))
		require.NoError(t, err)
		abs, err := e.service.Create(ctx, staff, absence("2024-04-01", "2024-04-03"))
		require.NoError(t, err)

		_, err = e.service.Update(ctx, staff, abs.ID, leave.UpdateLeaveRequest{
			LeaveType: "ANNUAL", StartDate: "2024-07-01", EndDate: "2024-07-20",
		})
		assert.ErrorIs(t, err, balanceerrors.ErrInsufficientBalance)

		l := e.ledger(t, staff, 2024)
		assert.Equal(t, 15, l.AnnualRemaining)
		assert.Equal(t, 12, l.AbsenceRemaining)

		got, err := e.service.GetByID(ctx, staff, abs.ID)
		require.NoError(t, err)
		assert.Equal(t, "ABSENCE", got.LeaveType)
		assert.Equal(t, "2024-04-01", got.StartDate)
		assert.Equal(t, "2024-04-03", got.EndDate)
		assert.Equal(t, 3, got.TotalDays)
		assert.Equal(t, []string{"CREATED"}, actions(t, e.service, staff, abs.ID))
	})

	t.Run("approved request is reconciled and keeps its status", func(t *testing.T) {
		e := setupEngine(t)
		staff := e.seedStaff(t, 30, 15)

		_, err := e.service.Create(ctx, staff, annual("2024-01-01", "2024-01-15"))
		require.NoError(t, err)
		second, err := e.service.Create(ctx, staff, annual("2024-03-04", "2024-03-08"))
		require.NoError(t, err)
		assert.Equal(t, 10, e.ledger(t, staff, 2024).AnnualRemaining)

		_, err = e.service.Approve(ctx, e.hr, second.ID, "")
		require.NoError(t, err)

		updated, err := e.service.Update(ctx, staff, second.ID, leave.UpdateLeaveRequest{
			LeaveType: "ANNUAL", StartDate: "2024-03-04", EndDate: "2024-03-11", Reason: "longer trip",
		})
		require.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, updated.Status)
		assert.Equal(t, 8, updated.TotalDays)
		assert.Equal(t, "longer trip", updated.Reason)
		assert.Equal(t, 7, e.ledger(t, staff, 2024).AnnualRemaining)
		assert.Equal(t, []string{"CREATED", "APPROVED", "UPDATED"}, actions(t, e.service, staff, second.ID))

		cancelled, err := e.service.Cancel(ctx, staff, second.ID)
		require.NoError(t, err)
		assert.Equal(t, 8, cancelled.TotalDays)
		assert.Equal(t, 15, e.ledger(t, staff, 2024).AnnualRemaining)
	})

	t.Run("type change moves days between counters", func(t *testing.T) {
		e := setupEngine(t)
		staff := e.seedStaff(t, 30, 15)
		e.seedApproved(t, staff, domain.LeaveTypeAbsence, "2024-01-08", "2024-01-10", 3)

		created, err := e.service.Create(ctx, staff, annual("2024-02-05", "2024-02-19"))
		require.NoError(t, err)

		_, err = e.service.Update(ctx, staff, created.ID, leave.UpdateLeaveRequest{
			LeaveType: "ABSENCE", StartDate: "2024-02-05", EndDate: "2024-02-06",
		})
		require.NoError(t, err)

		l := e.ledger(t, staff, 2024)
		assert.Equal(t, 30, l.AnnualRemaining)
		assert.Equal(t, 13, l.AbsenceRemaining)
	})

	t.Run("moving to another year charges that year", func(t *testing.T) {
		e := setupEngine(t)
		staff := e.seedStaff(t, 30, 15)

		_, err := e.service.Create(ctx, staff, annual("2024-01-01", "2024-01-15"))
		require.NoError(t, err)
		second, err := e.service.Create(ctx, staff, annual("2024-12-02", "2024-12-06"))
		require.NoError(t, err)

		updated, err := e.service.Update(ctx, staff, second.ID, leave.UpdateLeaveRequest{
			LeaveType: "ANNUAL", StartDate: "2025-01-06", EndDate: "2025-01-08",
		})
		require.NoError(t, err)
		require.NotNil(t, updated.Balance)
		assert.Equal(t, 2025, updated.Balance.Year)
		assert.Equal(t, 15, e.ledger(t, staff, 2024).AnnualRemaining)
		assert.Equal(t, 27, e.ledger(t, staff, 2025).AnnualRemaining)
	})

	t.Run("edit may not overlap and first request stays exact", func(t *testing.T) {
		e := setupEngine(t)
		staff := e.seedStaff(t, 30, 15)

		first, err := e.service.Create(ctx, staff, annual("2024-01-01", "2024-01-15"))
		require.NoError(t, err)
		second, err := e.service.Create(ctx, staff, annual("2024-03-04", "2024-03-08"))
		require.NoError(t, err)

		_, err = e.service.Update(ctx, staff, second.ID, leave.UpdateLeaveRequest{
			LeaveType: "ANNUAL", StartDate: "2024-01-10", EndDate: "2024-01-12",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)

		_, err = e.service.Cancel(ctx, staff, second.ID)
		require.NoError(t, err)
		_, err = e.service.Update(ctx, staff, first.ID, leave.UpdateLeaveRequest{
			LeaveType: "ANNUAL", StartDate: "2024-01-01", EndDate: "2024-01-10",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrFirstRequestDuration)
		assert.Equal(t, 15, e.ledger(t, staff, 2024).AnnualRemaining)
	})

	t.Run("terminal requests and strangers are refused", func(t *testing.T) {
		e := setupEngine(t)
		staff := e.seedStaff(t, 30, 15)
		stranger := e.seedStaff(t, 30, 15)

		created, err := e.service.Create(ctx, staff, absence("2024-04-01", "2024-04-03"))
		require.NoError(t, err)

		edit := leave.UpdateLeaveRequest{LeaveType: "ABSENCE", StartDate: "2024-04-08", EndDate: "2024-04-10"}
		_, err = e.service.Update(ctx, stranger, created.ID, edit)
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveForbidden)

		_, err = e.service.Reject(ctx, e.hr, created.ID, "")
		require.NoError(t, err)
		_, err = e.service.Update(ctx, staff, created.ID, edit)
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusTransition)
	})
}

func TestLeaveService_Submit(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)
	staff := e.seedStaff(t, 30, 15)

	created, err := e.service.Create(ctx, staff, annual("2024-01-01", "2024-01-15"))
	require.NoError(t, err)
	assert.Nil(t, created.SubmittedAt)

	submitted, err := e.service.Submit(ctx, staff, created.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)
	assert.True(t, submitted.SubmittedAt.After(fixedNow))
	assert.Equal(t, 15, e.ledger(t, staff, 2024).AnnualRemaining)

	_, err = e.service.Approve(ctx, e.hr, created.ID, "")
	require.NoError(t, err)
	_, err = e.service.Submit(ctx, staff, created.ID)
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusTransition)

	assert.Equal(t, []string{"CREATED", "SUBMITTED", "APPROVED"}, actions(t, e.service, staff, created.ID))
}

func TestLeaveService_Delete(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)
	staff := e.seedStaff(t, 30, 15)

	pending, err := e.service.Create(ctx, staff, annual("2024-01-01", "2024-01-15"))
	require.NoError(t, err)
	assert.Equal(t, 15, e.ledger(t, staff, 2024).AnnualRemaining)

	require.NoError(t, e.service.Delete(ctx, e.admin, pending.ID))
	assert.Equal(t, 30, e.ledger(t, staff, 2024).AnnualRemaining)

	_, err = e.service.GetByID(ctx, e.admin, pending.ID)
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)

	var entries []audit.Entry
	require.NoError(t, e.db.Where("leave_id = ?", uuid.MustParse(pending.ID)).Order("occurred_at ASC").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionCancelled, entries[1].Action)
	assert.Equal(t, "Fatou Sow", entries[1].ActorName)

	evts := e.leaveEvents(t)
	assert.Equal(t, events.LeaveDeleted, evts[len(evts)-1].EventType)

	t.Run("rejected request gives nothing back twice", func(t *testing.T) {
		created, err := e.service.Create(ctx, staff, annual("2024-01-01", "2024-01-15"))
		require.NoError(t, err)
		_, err = e.service.Reject(ctx, e.hr, created.ID, "")
		require.NoError(t, err)
		assert.Equal(t, 30, e.ledger(t, staff, 2024).AnnualRemaining)

		require.NoError(t, e.service.Delete(ctx, e.admin, created.ID))
		assert.Equal(t, 30, e.ledger(t, staff, 2024).AnnualRemaining)
	})

	t.Run("missing request", func(t *testing.T) {
		err := e.service.Delete(ctx, e.admin, uuid.NewString())
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)

		err = e.service.Delete(ctx, e.admin, "not-a-uuid")
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveID)
	})
}

func TestLeaveService_Reads(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)
	staff := e.seedStaff(t, 30, 15)
	other := e.seedStaff(t, 30, 15)

	mine, err := e.service.Create(ctx, staff, annual("2024-01-01", "2024-01-15"))
	require.NoError(t, err)
	_, err = e.service.Create(ctx, staff, absence("2024-04-01", "2024-04-03"))
	require.NoError(t, err)
	theirs, err := e.service.Create(ctx, other, annual("2024-01-01", "2024-01-15"))
	require.NoError(t, err)

	own, err := e.service.GetAll(ctx, staff, leave.ListFilter{EmployeeID: other.EmployeeID})
	require.NoError(t, err)
	require.Len(t, own, 2)
	for _, r := range own {
		assert.Equal(t, staff.EmployeeID, r.EmployeeID)
	}

	all, err := e.service.GetAll(ctx, e.hr, leave.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	annuals, err := e.service.GetAll(ctx, e.hr, leave.ListFilter{LeaveType: "annual", Year: 2024})
	require.NoError(t, err)
	assert.Len(t, annuals, 2)

	none, err := e.service.GetAll(ctx, e.hr, leave.ListFilter{Year: 2023})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = e.service.GetAll(ctx, e.hr, leave.ListFilter{EmployeeID: "nope"})
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidEmployeeID)

	_, err = e.service.GetByID(ctx, staff, theirs.ID)
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveForbidden)
	_, err = e.service.History(ctx, staff, theirs.ID)
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveForbidden)

	got, err := e.service.GetByID(ctx, e.hr, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	_, err = e.service.GetByID(ctx, e.hr, uuid.NewString())
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
}

func TestLeaveService_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)
	staff := e.seedStaff(t, 15, 15)
	e.seedApproved(t, staff, domain.LeaveTypeAnnual, "2024-01-01", "2024-01-15", 15)

	const workers = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := time.Date(2024, time.Month(3+i), 1, 0, 0, 0, 0, time.UTC)
			_, err := e.service.Create(ctx, staff, annual(start.Format("2006-01-02"), start.AddDate(0, 0, 4).Format("2006-01-02")))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			failures = append(failures, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	for _, err := range failures {
		assert.True(t, errors.Is(err, balanceerrors.ErrInsufficientBalance), "unexpected error: %v", err)
	}
	assert.Equal(t, 0, e.ledger(t, staff, 2024).AnnualRemaining)
}
