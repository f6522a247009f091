package workflow

import "fmt"

// Action identifies a transition request against a report.
type Action string

const (
	ActionSubmit    Action = "submit"
	ActionApprove   Action = "approve"
	ActionReject    Action = "reject"
	ActionReconcile Action = "reconcile"
)

// ActionSet describes which affordances a viewer gets for a report.
type ActionSet struct {
	CanSubmit        bool `json:"can_submit"`
	CanApproveReport bool `json:"can_approve_report"`
	CanRejectReport  bool `json:"can_reject_report"`
	PerExpenseReview bool `json:"per_expense_review"`
	CanEditExpenses  bool `json:"can_edit_expenses"`
	CanReconcile     bool `json:"can_reconcile"`
}

// supervisorActionable and treasuryActionable are the whole-report stages
// each reviewer may act on; treasury's set is a superset of the single
// supervisor stage.
var supervisorActionable = map[ReportStatus]struct{}{
	StatusSupervisorPending: {},
}

var treasuryActionable = map[ReportStatus]struct{}{
	StatusTreasuryPending:      {},
	StatusFundsReturnPending:   {},
	StatusReviewReturn:         {},
	StatusApprovedForReimburse: {},
}

// ActionsFor computes the affordances for a (status, role) pair. Accounting
// never receives whole-report approve/reject; it reviews expenses one by one.
func ActionsFor(status ReportStatus, role Role) ActionSet {
	set := ActionSet{
		CanSubmit:       status == StatusPending,
		CanEditExpenses: status == StatusPending,
		CanReconcile:    status == StatusApproved,
	}
	switch role {
	case RoleSupervisor:
		_, ok := supervisorActionable[status]
		set.CanApproveReport = ok
		set.CanRejectReport = ok
	case RoleTreasury:
		_, ok := treasuryActionable[status]
		set.CanApproveReport = ok
		set.CanRejectReport = ok
	case RoleAccounting:
		set.PerExpenseReview = status == StatusAccountingPending
	}
	return set
}

// Actionable reports whether the role may issue a whole-report decision for
// the status.
func Actionable(status ReportStatus, role Role) bool {
	set := ActionsFor(status, role)
	return set.CanApproveReport || set.CanRejectReport
}

// ReconcileOutcome compares reported spend against the prepaid amount; the
// sign decides which settlement branch an APPROVED prepayment takes.
type ReconcileOutcome int

const (
	SpendMatchesPrepaid ReconcileOutcome = iota
	SpendBelowPrepaid
	SpendAbovePrepaid
)

// NextOnApprove resolves the approve transition for a whole-report decision.
// isReimbursement selects the payout branch leaving treasury.
func NextOnApprove(status ReportStatus, isReimbursement bool) (ReportStatus, error) {
	switch status {
	case StatusSupervisorPending:
		return StatusAccountingPending, nil
	case StatusTreasuryPending:
		if isReimbursement {
			return StatusApprovedForReimburse, nil
		}
		return StatusApproved, nil
	case StatusApprovedForReimburse:
		return StatusApprovedRepaid, nil
	case StatusFundsReturnPending:
		return StatusApprovedReturnedFunds, nil
	case StatusReviewReturn:
		return StatusApprovedRepaid, nil
	}
	return "", fmt.Errorf("no approve transition from %s", status)
}

// NextOnReject resolves the reject transition for a whole-report decision.
func NextOnReject(status ReportStatus) (ReportStatus, error) {
	role := ReviewerFor(status)
	if role == RoleOther || status == StatusAccountingPending {
		return "", fmt.Errorf("no reject transition from %s", status)
	}
	return StatusRejected, nil
}

// NextOnSubmit resolves the submit transition entering the pipeline.
func NextOnSubmit(status ReportStatus) (ReportStatus, error) {
	if status != StatusPending {
		return "", fmt.Errorf("no submit transition from %s", status)
	}
	return StatusSupervisorPending, nil
}

// NextOnReconcile resolves the settlement branch for a disbursed prepayment.
func NextOnReconcile(status ReportStatus, outcome ReconcileOutcome) (ReportStatus, error) {
	if status != StatusApproved {
		return "", fmt.Errorf("no reconcile transition from %s", status)
	}
	switch outcome {
	case SpendBelowPrepaid:
		return StatusFundsReturnPending, nil
	case SpendAbovePrepaid:
		return StatusReviewReturn, nil
	default:
		return StatusApprovedExpenses, nil
	}
}

// NextOnAccountingComplete resolves where a report goes once every expense
// has left PENDING: forward to treasury when anything survived, otherwise the
// report as a whole is rejected.
func NextOnAccountingComplete(anyApproved bool) ReportStatus {
	if anyApproved {
		return StatusTreasuryPending
	}
	return StatusRejected
}
