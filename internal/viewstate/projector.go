// Package viewstate projects a report's approval state into UI affordances
// without depending on any rendering or transport layer. It tracks draft
// rejection reasons, row expansion, and in-flight submissions, and folds
// server-confirmed decisions back into the local snapshot.
package viewstate

import (
	"errors"
	"sort"
	"strings"

	"github.com/viaticos-app/viaticos-api/internal/models"
	"github.com/viaticos-app/viaticos-api/internal/workflow"
)

// Validation errors surfaced inline by the projector. None of them implies a
// network request was made.
var (
	ErrSubmissionInFlight = errors.New("another submission is in flight")
	ErrBlockingRejection  = errors.New("cannot approve report with rejected expenses; clear or submit the rejections first")
	ErrNoRejections       = errors.New("rejecting a report requires at least one expense rejection reason")
	ErrReasonRequired     = errors.New("a rejection reason is required")
	ErrUnknownExpense     = errors.New("expense does not belong to this report")
	ErrExpenseResolved    = errors.New("expense has already been reviewed")
	ErrNotReviewable      = errors.New("report is not reviewable in its current status")
)

// Decision carries the server-confirmed outcome of a per-expense request,
// including the report-level completion flag.
type Decision struct {
	ExpenseID           string
	Status              workflow.ExpenseStatus
	RejectionReason     string
	ReportStatusChanged bool
	ReportStatus        workflow.ReportStatus
}

type pendingDecision struct {
	expenseID string
	status    workflow.ExpenseStatus
	reason    string
}

// Projector holds the view state for one report approval screen. It is not
// safe for concurrent use; each view owns its own instance.
type Projector struct {
	report   models.Report
	expenses []models.Expense
	index    map[string]int
	role     workflow.Role
	lang     workflow.Language

	// Supervisor/treasury whole-report rejections and accounting per-expense
	// rejections keep separate draft stores so the two flows cannot clobber
	// each other's text for the same expense id.
	reportDrafts     map[string]string
	accountingDrafts map[string]string

	expanded  map[string]bool
	rowErrors map[string]string
	alert     string

	submitting bool
	pending    *pendingDecision
	done       bool
}

// New builds a projector from a report snapshot. Expenses are ordered for
// display (date descending, category ascending) and rows carrying a persisted
// rejection reason start expanded.
func New(report models.Report, expenses []models.Expense, role workflow.Role, lang workflow.Language) *Projector {
	p := &Projector{
		report:           report,
		expenses:         append([]models.Expense(nil), expenses...),
		index:            make(map[string]int, len(expenses)),
		role:             role,
		lang:             lang,
		reportDrafts:     make(map[string]string),
		accountingDrafts: make(map[string]string),
		expanded:         make(map[string]bool),
		rowErrors:        make(map[string]string),
	}
	sort.SliceStable(p.expenses, func(i, j int) bool {
		if !p.expenses[i].ExpenseDate.Equal(p.expenses[j].ExpenseDate) {
			return p.expenses[i].ExpenseDate.After(p.expenses[j].ExpenseDate)
		}
		return p.expenses[i].CategoryName < p.expenses[j].CategoryName
	})
	for i, exp := range p.expenses {
		p.index[exp.ID] = i
		if exp.RejectionReason != nil && strings.TrimSpace(*exp.RejectionReason) != "" {
			p.expanded[exp.ID] = true
		}
	}
	return p
}

// Report returns the current local snapshot of the report.
func (p *Projector) Report() models.Report { return p.report }

// Expenses returns the display-ordered expense rows.
func (p *Projector) Expenses() []models.Expense {
	return append([]models.Expense(nil), p.expenses...)
}

// StatusLabel localizes the report status, falling back to the raw value.
func (p *Projector) StatusLabel() string { return workflow.Label(p.report.Status, p.lang) }

// Actions exposes the affordances for the current (status, role) pair.
func (p *Projector) Actions() workflow.ActionSet {
	return workflow.ActionsFor(p.report.Status, p.role)
}

// Submitting reports whether a request is in flight; the guard blocks
// duplicate submissions from the same view.
func (p *Projector) Submitting() bool { return p.submitting }

// Done reports that the server signalled a report-level transition and the
// view should close or navigate away.
func (p *Projector) Done() bool { return p.done }

// Alert returns the page-level error message, empty when none.
func (p *Projector) Alert() string { return p.alert }

// RowError returns the inline error for an expense row, empty when none.
func (p *Projector) RowError(expenseID string) string { return p.rowErrors[expenseID] }

// Expanded reports whether the expense's detail panel is open.
func (p *Projector) Expanded(expenseID string) bool { return p.expanded[expenseID] }

// ToggleExpanded flips the expense row's detail panel.
func (p *Projector) ToggleExpanded(expenseID string) {
	p.expanded[expenseID] = !p.expanded[expenseID]
}

// SetReportDraft records a whole-report-flow rejection reason draft,
// truncated to the cap at input time.
func (p *Projector) SetReportDraft(expenseID, text string) {
	p.reportDrafts[expenseID] = truncateReason(text)
}

// ReportDraft returns the whole-report-flow draft for the expense.
func (p *Projector) ReportDraft(expenseID string) string { return p.reportDrafts[expenseID] }

// SetAccountingDraft records an accounting-flow rejection reason draft,
// truncated to the cap at input time.
func (p *Projector) SetAccountingDraft(expenseID, text string) {
	p.accountingDrafts[expenseID] = truncateReason(text)
}

// AccountingDraft returns the accounting-flow draft for the expense.
func (p *Projector) AccountingDraft(expenseID string) string { return p.accountingDrafts[expenseID] }

// BeginApproveReport validates a whole-report approval. A non-empty trimmed
// draft in the report flow blocks the action client-side: the report cannot
// be approved while a rejection is pending resolution.
func (p *Projector) BeginApproveReport() error {
	if p.submitting {
		return ErrSubmissionInFlight
	}
	if !p.Actions().CanApproveReport {
		return ErrNotReviewable
	}
	for _, draft := range p.reportDrafts {
		if strings.TrimSpace(draft) != "" {
			p.alert = ErrBlockingRejection.Error()
			return ErrBlockingRejection
		}
	}
	p.alert = ""
	p.submitting = true
	return nil
}

// RejectionPayload collects the non-empty trimmed report-flow drafts as the
// expense_rejections payload. It errors when no rejection reason exists.
func (p *Projector) RejectionPayload() ([]models.ExpenseRejection, error) {
	rejections := make([]models.ExpenseRejection, 0, len(p.reportDrafts))
	for _, exp := range p.expenses {
		reason := strings.TrimSpace(p.reportDrafts[exp.ID])
		if reason == "" {
			continue
		}
		rejections = append(rejections, models.ExpenseRejection{ExpenseID: exp.ID, RejectionReason: reason})
	}
	if len(rejections) == 0 {
		return nil, ErrNoRejections
	}
	return rejections, nil
}

// BeginRejectReport validates a whole-report rejection and arms the
// submission guard. The payload must be built via RejectionPayload.
func (p *Projector) BeginRejectReport() ([]models.ExpenseRejection, error) {
	if p.submitting {
		return nil, ErrSubmissionInFlight
	}
	if !p.Actions().CanRejectReport {
		return nil, ErrNotReviewable
	}
	rejections, err := p.RejectionPayload()
	if err != nil {
		p.alert = err.Error()
		return nil, err
	}
	p.alert = ""
	p.submitting = true
	return rejections, nil
}

// BeginApproveExpense validates a per-expense approval in the accounting
// flow. The local row is not patched until ApplyExpenseDecision confirms.
func (p *Projector) BeginApproveExpense(expenseID string) error {
	if err := p.beginExpenseDecision(expenseID); err != nil {
		return err
	}
	p.pending = &pendingDecision{expenseID: expenseID, status: workflow.ExpenseApproved}
	p.submitting = true
	return nil
}

// BeginRejectExpense validates a per-expense rejection. A missing draft
// expands the row and surfaces an inline error instead of silently failing;
// no request should be issued in that case.
func (p *Projector) BeginRejectExpense(expenseID string) error {
	if err := p.beginExpenseDecision(expenseID); err != nil {
		return err
	}
	reason := strings.TrimSpace(p.accountingDrafts[expenseID])
	if reason == "" {
		p.expanded[expenseID] = true
		p.rowErrors[expenseID] = ErrReasonRequired.Error()
		return ErrReasonRequired
	}
	delete(p.rowErrors, expenseID)
	p.pending = &pendingDecision{expenseID: expenseID, status: workflow.ExpenseRejected, reason: reason}
	p.submitting = true
	return nil
}

// PendingReason returns the reason armed by BeginRejectExpense for the
// request body.
func (p *Projector) PendingReason() string {
	if p.pending == nil {
		return ""
	}
	return p.pending.reason
}

// ApplyExpenseDecision folds a confirmed per-expense decision into local
// state and adopts the server's completion flag as authoritative.
func (p *Projector) ApplyExpenseDecision(decision Decision) {
	p.submitting = false
	p.pending = nil
	p.alert = ""
	if i, ok := p.index[decision.ExpenseID]; ok {
		p.expenses[i].Status = decision.Status
		if decision.Status == workflow.ExpenseRejected {
			reason := decision.RejectionReason
			p.expenses[i].RejectionReason = &reason
		} else {
			p.expenses[i].RejectionReason = nil
		}
		delete(p.accountingDrafts, decision.ExpenseID)
		delete(p.rowErrors, decision.ExpenseID)
	}
	if decision.ReportStatusChanged {
		if decision.ReportStatus != "" {
			p.report.Status = decision.ReportStatus
		}
		p.done = true
	}
}

// CompleteReportDecision adopts the server status after a whole-report
// approve/reject succeeded and closes the view.
func (p *Projector) CompleteReportDecision(status workflow.ReportStatus) {
	p.submitting = false
	p.alert = ""
	if status != "" {
		p.report.Status = status
	}
	p.done = true
}

// FailSubmission surfaces the server's detail message verbatim and re-enables
// submission. The pending decision is discarded untouched: local state is
// only patched on success.
func (p *Projector) FailSubmission(detail string) {
	p.submitting = false
	p.pending = nil
	p.alert = detail
}

// AllResolved reports whether every expense has left PENDING.
func (p *Projector) AllResolved() bool {
	for _, exp := range p.expenses {
		if exp.Status == workflow.ExpensePending {
			return false
		}
	}
	return len(p.expenses) > 0
}

// AnyApproved reports whether at least one expense survived review.
func (p *Projector) AnyApproved() bool {
	for _, exp := range p.expenses {
		if exp.Status == workflow.ExpenseApproved {
			return true
		}
	}
	return false
}

// CanResume exposes the manual resume affordance: every expense resolved but
// the report has not yet received the server's completion signal.
func (p *Projector) CanResume() bool {
	return !p.done &&
		p.report.Status == workflow.StatusAccountingPending &&
		p.AllResolved()
}

func (p *Projector) beginExpenseDecision(expenseID string) error {
	if p.submitting {
		return ErrSubmissionInFlight
	}
	if !p.Actions().PerExpenseReview {
		return ErrNotReviewable
	}
	i, ok := p.index[expenseID]
	if !ok {
		return ErrUnknownExpense
	}
	if p.expenses[i].Status != workflow.ExpensePending {
		return ErrExpenseResolved
	}
	return nil
}

func truncateReason(text string) string {
	runes := []rune(text)
	if len(runes) > workflow.MaxRejectionReasonLength {
		return string(runes[:workflow.MaxRejectionReasonLength])
	}
	return text
}
