package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionsForSupervisor(t *testing.T) {
	set := ActionsFor(StatusSupervisorPending, RoleSupervisor)
	assert.True(t, set.CanApproveReport)
	assert.True(t, set.CanRejectReport)
	assert.False(t, set.PerExpenseReview)

	set = ActionsFor(StatusTreasuryPending, RoleSupervisor)
	assert.False(t, set.CanApproveReport)
	assert.False(t, set.CanRejectReport)
}

func TestActionsForAccountingIsPerExpenseOnly(t *testing.T) {
	set := ActionsFor(StatusAccountingPending, RoleAccounting)
	assert.False(t, set.CanApproveReport)
	assert.False(t, set.CanRejectReport)
	assert.True(t, set.PerExpenseReview)
}

func TestActionsForTreasuryStages(t *testing.T) {
	for _, status := range []ReportStatus{StatusTreasuryPending, StatusFundsReturnPending, StatusReviewReturn, StatusApprovedForReimburse} {
		set := ActionsFor(status, RoleTreasury)
		assert.True(t, set.CanApproveReport, string(status))
		assert.True(t, set.CanRejectReport, string(status))
	}
}

func TestActionsForDraft(t *testing.T) {
	set := ActionsFor(StatusPending, RoleOther)
	assert.True(t, set.CanSubmit)
	assert.True(t, set.CanEditExpenses)
	assert.False(t, set.CanReconcile)

	set = ActionsFor(StatusApproved, RoleOther)
	assert.True(t, set.CanReconcile)
	assert.False(t, set.CanSubmit)
}

func TestNextOnApprove(t *testing.T) {
	cases := []struct {
		from          ReportStatus
		reimbursement bool
		want          ReportStatus
	}{
		{StatusSupervisorPending, false, StatusAccountingPending},
		{StatusTreasuryPending, false, StatusApproved},
		{StatusTreasuryPending, true, StatusApprovedForReimburse},
		{StatusApprovedForReimburse, true, StatusApprovedRepaid},
		{StatusFundsReturnPending, false, StatusApprovedReturnedFunds},
		{StatusReviewReturn, false, StatusApprovedRepaid},
	}
	for _, tc := range cases {
		got, err := NextOnApprove(tc.from, tc.reimbursement)
		require.NoError(t, err, string(tc.from))
		assert.Equal(t, tc.want, got, string(tc.from))
	}

	_, err := NextOnApprove(StatusPending, false)
	assert.Error(t, err)
	_, err = NextOnApprove(StatusAccountingPending, false)
	assert.Error(t, err)
}

func TestNextOnReject(t *testing.T) {
	for _, status := range []ReportStatus{StatusSupervisorPending, StatusTreasuryPending, StatusFundsReturnPending, StatusReviewReturn, StatusApprovedForReimburse} {
		got, err := NextOnReject(status)
		require.NoError(t, err, string(status))
		assert.Equal(t, StatusRejected, got)
	}

	_, err := NextOnReject(StatusAccountingPending)
	assert.Error(t, err)
	_, err = NextOnReject(StatusPending)
	assert.Error(t, err)
}

func TestNextOnSubmit(t *testing.T) {
	got, err := NextOnSubmit(StatusPending)
	require.NoError(t, err)
	assert.Equal(t, StatusSupervisorPending, got)

	_, err = NextOnSubmit(StatusRejected)
	assert.Error(t, err)
}

func TestNextOnReconcile(t *testing.T) {
	got, err := NextOnReconcile(StatusApproved, SpendMatchesPrepaid)
	require.NoError(t, err)
	assert.Equal(t, StatusApprovedExpenses, got)

	got, err = NextOnReconcile(StatusApproved, SpendBelowPrepaid)
	require.NoError(t, err)
	assert.Equal(t, StatusFundsReturnPending, got)

	got, err = NextOnReconcile(StatusApproved, SpendAbovePrepaid)
	require.NoError(t, err)
	assert.Equal(t, StatusReviewReturn, got)

	_, err = NextOnReconcile(StatusPending, SpendMatchesPrepaid)
	assert.Error(t, err)
}

func TestNextOnAccountingComplete(t *testing.T) {
	assert.Equal(t, StatusTreasuryPending, NextOnAccountingComplete(true))
	assert.Equal(t, StatusRejected, NextOnAccountingComplete(false))
}
