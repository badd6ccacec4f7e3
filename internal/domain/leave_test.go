package domain_test

import (
	"testing"

	"go-leavedesk/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestLeaveType(t *testing.T) {
	assert.True(t, domain.LeaveTypeAnnual.BalanceTracked())
	assert.True(t, domain.LeaveTypeAbsence.BalanceTracked())
	assert.False(t, domain.LeaveTypeSick.BalanceTracked())
	assert.False(t, domain.LeaveTypeMaternity.BalanceTracked())
	assert.False(t, domain.LeaveType("UNPAID").IsValid())

	days, ok := domain.LeaveTypeAnnual.FirstRequestDays()
	assert.True(t, ok)
	assert.Equal(t, 15, days)

	days, ok = domain.LeaveTypeAbsence.FirstRequestDays()
	assert.True(t, ok)
	assert.Equal(t, 3, days)

	_, ok = domain.LeaveTypeMaternity.FirstRequestDays()
	assert.False(t, ok)
}
