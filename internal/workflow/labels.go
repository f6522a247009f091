package workflow

// Language selects the display language for status labels.
type Language string

const (
	LangEN Language = "en"
	LangES Language = "es"
)

var labelsEN = map[ReportStatus]string{
	StatusPending:               "Pending submission",
	StatusSupervisorPending:     "Awaiting supervisor approval",
	StatusAccountingPending:     "Awaiting accounting review",
	StatusTreasuryPending:       "Awaiting treasury approval",
	StatusApprovedForReimburse:  "Approved for reimbursement",
	StatusFundsReturnPending:    "Awaiting funds return",
	StatusReviewReturn:          "Return under review",
	StatusApproved:              "Approved",
	StatusApprovedExpenses:      "Approved, expenses settled",
	StatusApprovedRepaid:        "Approved and repaid",
	StatusApprovedReturnedFunds: "Approved, funds returned",
	StatusRejected:              "Rejected",
}

var labelsES = map[ReportStatus]string{
	StatusPending:               "Pendiente de envío",
	StatusSupervisorPending:     "Pendiente de aprobación del supervisor",
	StatusAccountingPending:     "Pendiente de revisión contable",
	StatusTreasuryPending:       "Pendiente de aprobación de tesorería",
	StatusApprovedForReimburse:  "Aprobado para reembolso",
	StatusFundsReturnPending:    "Pendiente de devolución de fondos",
	StatusReviewReturn:          "Devolución en revisión",
	StatusApproved:              "Aprobado",
	StatusApprovedExpenses:      "Aprobado, gastos liquidados",
	StatusApprovedRepaid:        "Aprobado y reembolsado",
	StatusApprovedReturnedFunds: "Aprobado, fondos devueltos",
	StatusRejected:              "Rechazado",
}

var expenseLabelsEN = map[ExpenseStatus]string{
	ExpensePending:   "Pending",
	ExpenseApproved:  "Approved",
	ExpenseRejected:  "Rejected",
	ExpenseInProcess: "In process",
}

var expenseLabelsES = map[ExpenseStatus]string{
	ExpensePending:   "Pendiente",
	ExpenseApproved:  "Aprobado",
	ExpenseRejected:  "Rechazado",
	ExpenseInProcess: "En proceso",
}

// Label returns the localized label for a report status. Unrecognized
// statuses fall through to the raw string verbatim; the function never fails.
func Label(status ReportStatus, lang Language) string {
	table := labelsEN
	if lang == LangES {
		table = labelsES
	}
	if label, ok := table[status]; ok {
		return label
	}
	return string(status)
}

// ExpenseLabel returns the localized label for an expense status with the
// same verbatim fallback as Label.
func ExpenseLabel(status ExpenseStatus, lang Language) string {
	table := expenseLabelsEN
	if lang == LangES {
		table = expenseLabelsES
	}
	if label, ok := table[status]; ok {
		return label
	}
	return string(status)
}
