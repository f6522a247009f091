// Package workflow holds the approval pipeline rules shared by the API
// services and the view-state projector: status and role derivation, label
// mapping, action availability, and the report transition graph.
package workflow

import "strings"

// ReportStatus captures a report's position in the approval pipeline.
type ReportStatus string

const (
	StatusPending                ReportStatus = "PENDING"
	StatusSupervisorPending      ReportStatus = "SUPERVISOR_PENDING"
	StatusAccountingPending      ReportStatus = "ACCOUNTING_PENDING"
	StatusTreasuryPending        ReportStatus = "TREASURY_PENDING"
	StatusApprovedForReimburse   ReportStatus = "APPROVED_FOR_REIMBURSEMENT"
	StatusFundsReturnPending     ReportStatus = "FUNDS_RETURN_PENDING"
	StatusReviewReturn           ReportStatus = "REVIEW_RETURN"
	StatusApproved               ReportStatus = "APPROVED"
	StatusApprovedExpenses       ReportStatus = "APPROVED_EXPENSES"
	StatusApprovedRepaid         ReportStatus = "APPROVED_REPAID"
	StatusApprovedReturnedFunds  ReportStatus = "APPROVED_RETURNED_FUNDS"
	StatusRejected               ReportStatus = "REJECTED"
)

// ExpenseStatus is the per-expense sub-lifecycle nested inside a report.
type ExpenseStatus string

const (
	ExpensePending   ExpenseStatus = "PENDING"
	ExpenseApproved  ExpenseStatus = "APPROVED"
	ExpenseRejected  ExpenseStatus = "REJECTED"
	ExpenseInProcess ExpenseStatus = "IN_PROCESS"
)

// Role is the implied reviewer responsibility for a pipeline stage. It is a
// presentation-level projection, not a security boundary: the server
// re-validates the actor on every transition.
type Role string

const (
	RoleSupervisor Role = "SUPERVISOR"
	RoleAccounting Role = "ACCOUNTING"
	RoleTreasury   Role = "TREASURY"
	RoleOther      Role = "OTHER"
)

// MaxRejectionReasonLength caps rejection reasons at input time.
const MaxRejectionReasonLength = 300

var knownStatuses = map[ReportStatus]struct{}{
	StatusPending:               {},
	StatusSupervisorPending:     {},
	StatusAccountingPending:     {},
	StatusTreasuryPending:       {},
	StatusApprovedForReimburse:  {},
	StatusFundsReturnPending:    {},
	StatusReviewReturn:          {},
	StatusApproved:              {},
	StatusApprovedExpenses:      {},
	StatusApprovedRepaid:        {},
	StatusApprovedReturnedFunds: {},
	StatusRejected:              {},
}

// ParseStatus normalizes a raw status string case-insensitively. Unknown
// values are preserved (upper-cased) and reported via ok=false so callers can
// fail open instead of dropping the value.
func ParseStatus(raw string) (ReportStatus, bool) {
	status := ReportStatus(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := knownStatuses[status]
	return status, ok
}

// Known reports whether the status is part of the pipeline enumeration.
func (s ReportStatus) Known() bool {
	_, ok := knownStatuses[s]
	return ok
}

// Terminal reports whether no further transition is expected.
func (s ReportStatus) Terminal() bool {
	switch s {
	case StatusApprovedExpenses, StatusApprovedRepaid, StatusApprovedReturnedFunds, StatusRejected:
		return true
	}
	return false
}

// ReviewerFor derives the reviewer role implied by a report status. The
// mapping is total: every status, including unknown ones, maps to exactly one
// role so UI affordances never appear for an unrecognized status.
func ReviewerFor(status ReportStatus) Role {
	switch status {
	case StatusSupervisorPending:
		return RoleSupervisor
	case StatusAccountingPending:
		return RoleAccounting
	case StatusTreasuryPending, StatusApprovedForReimburse, StatusFundsReturnPending, StatusReviewReturn:
		return RoleTreasury
	default:
		return RoleOther
	}
}
