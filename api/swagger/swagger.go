package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Viaticos API",
        "description": "Travel expense reporting and reimbursement approval service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Reports", "description": "Travel expense report drafts"},
        {"name": "Expenses", "description": "Report line items"},
        {"name": "Approvals", "description": "Approval pipeline transitions"},
        {"name": "Catalog", "description": "Countries, currencies, and taxes"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/reports": {
            "get": {
                "tags": ["Reports"],
                "summary": "List reports visible to the caller",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "lang", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Reports"],
                "summary": "Create draft report",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateReportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Get report with label and affordances",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "lang", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Reports"],
                "summary": "Update pending draft",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateReportRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Report locked"}
                }
            },
            "delete": {
                "tags": ["Reports"],
                "summary": "Delete pending draft",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/reports/{id}/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download report as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string"},
                    {"name": "lang", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/expenses": {
            "get": {
                "tags": ["Expenses"],
                "summary": "List a report's expenses in display order",
                "parameters": [
                    {"name": "report_id", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Expenses"],
                "summary": "Add line item to pending draft",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateExpenseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/expenses/{id}": {
            "get": {
                "tags": ["Expenses"],
                "summary": "Get expense",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Expenses"],
                "summary": "Update line item of pending draft",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateExpenseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Report locked"}
                }
            },
            "delete": {
                "tags": ["Expenses"],
                "summary": "Delete line item of pending draft",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/approvals/reports/{id}/submit": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Submit draft into the pipeline",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition"}
                }
            }
        },
        "/approvals/reports/{id}/approve": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Apply whole-report approve or reject decision",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewReportRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition"}
                }
            }
        },
        "/approvals/reports/{id}/resume": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Reopen rejected report as draft",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition"}
                }
            }
        },
        "/approvals/reports/{id}/reconcile": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Settle disbursed prepayment against spend",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition"}
                }
            }
        },
        "/approvals/expenses/{id}/approve": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Approve one expense during accounting review",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Expense already decided"}
                }
            }
        },
        "/approvals/expenses/{id}/reject": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Reject one expense with a mandatory reason",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectExpenseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Expense already decided"}
                }
            }
        },
        "/countries": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List countries",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/currencies": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List currencies",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/taxes": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List taxes",
                "parameters": [
                    {"name": "country", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Report": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "employee_id": {"type": "string"},
                "report_type": {"type": "string", "enum": ["PREPAYMENT", "REIMBURSEMENT"]},
                "status": {"type": "string"},
                "reason": {"type": "string"},
                "destination_country": {"type": "string"},
                "currency_code": {"type": "string"},
                "prepaid_amount": {"type": "string"},
                "total_expenses": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "Expense": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "report_id": {"type": "string"},
                "category_name": {"type": "string"},
                "purpose": {"type": "string"},
                "amount": {"type": "string"},
                "currency_code": {"type": "string"},
                "expense_date": {"type": "string"},
                "status": {"type": "string", "enum": ["PENDING", "APPROVED", "REJECTED", "IN_PROCESS"]},
                "rejection_reason": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "CreateReportRequest": {
            "type": "object",
            "properties": {
                "report_type": {"type": "string", "enum": ["PREPAYMENT", "REIMBURSEMENT"]},
                "reason": {"type": "string"},
                "destination_country": {"type": "string"},
                "currency_code": {"type": "string"},
                "prepaid_amount": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"}
            },
            "required": ["report_type", "reason", "destination_country", "currency_code", "start_date", "end_date"]
        },
        "UpdateReportRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"},
                "destination_country": {"type": "string"},
                "currency_code": {"type": "string"},
                "prepaid_amount": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"}
            },
            "required": ["reason", "destination_country", "currency_code", "start_date", "end_date"]
        },
        "CreateExpenseRequest": {
            "type": "object",
            "properties": {
                "report_id": {"type": "string"},
                "category_name": {"type": "string"},
                "purpose": {"type": "string"},
                "amount": {"type": "string"},
                "currency_code": {"type": "string"},
                "expense_date": {"type": "string"}
            },
            "required": ["report_id", "category_name", "purpose", "amount", "currency_code", "expense_date"]
        },
        "UpdateExpenseRequest": {
            "type": "object",
            "properties": {
                "category_name": {"type": "string"},
                "purpose": {"type": "string"},
                "amount": {"type": "string"},
                "currency_code": {"type": "string"},
                "expense_date": {"type": "string"}
            },
            "required": ["category_name", "purpose", "amount", "currency_code", "expense_date"]
        },
        "ReviewReportRequest": {
            "type": "object",
            "properties": {
                "action": {"type": "string", "enum": ["approve", "reject"]},
                "expense_rejections": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ExpenseRejection"}
                }
            },
            "required": ["action"]
        },
        "RejectExpenseRequest": {
            "type": "object",
            "properties": {
                "action": {"type": "string"},
                "rejection_reason": {"type": "string", "maxLength": 300}
            },
            "required": ["rejection_reason"]
        },
        "ExpenseRejection": {
            "type": "object",
            "properties": {
                "expense_id": {"type": "string"},
                "rejection_reason": {"type": "string", "maxLength": 300}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "detail": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
