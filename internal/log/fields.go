package log

import "forecast/internal/core"

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldClientIP       = "client_ip"
	FieldUserID         = "user_id"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldQuery          = "query"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldUserAgent      = "user_agent"
	FieldSuccess        = "success"
	FieldError          = "error"
	FieldOperation      = "operation"
	FieldProjectID      = "project_id"
	FieldCategory       = "category"
	FieldBucket         = "bucket"
	FieldFinancialYear  = "financial_year"
	FieldFinancialMonth = "financial_month"
	FieldEntries        = "entries"
	FieldTimesheetID    = "timesheet_id"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentForecast  = "forecast"
	ComponentTimesheet = "timesheet"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentCLI       = "cli"
)

// Operations defines standard operation names
const (
	OpRead     = "read"
	OpList     = "list"
	OpSelect   = "select"
	OpEdit     = "edit"
	OpSave     = "save"
	OpExport   = "export"
	OpNavigate = "navigate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// Fields is an ordered builder for slog attributes.
type Fields []any

// NewFields creates an empty builder.
func NewFields() Fields {
	return make(Fields, 0, 16)
}

func (f Fields) add(key string, value any) Fields {
	return append(f, key, value)
}

func (f Fields) WithComponent(component string) Fields {
	return f.add(FieldComponent, component)
}

func (f Fields) WithRequestID(requestID string) Fields {
	return f.add(FieldRequestID, requestID)
}

func (f Fields) WithUser(userID string) Fields {
	if userID == "" {
		return f
	}
	return f.add(FieldUserID, userID)
}

// WithError adds the error message, skipping nil errors.
func (f Fields) WithError(err error) Fields {
	if err == nil {
		return f
	}
	return f.add(FieldError, err.Error())
}

func (f Fields) WithOperation(op string) Fields {
	return f.add(FieldOperation, op)
}

func (f Fields) WithProject(projectID string) Fields {
	return f.add(FieldProjectID, projectID)
}

// WithCell adds the calendar bucket, category and financial period of a cell.
func (f Fields) WithCell(c core.Cell) Fields {
	return f.
		add(FieldBucket, c.Bucket.String()).
		add(FieldCategory, c.Category.String()).
		add(FieldFinancialYear, c.FinancialYear).
		add(FieldFinancialMonth, c.FinancialMonth)
}

func (f Fields) WithHTTPRequest(method, path, query, clientIP string) Fields {
	return f.
		add(FieldMethod, method).
		add(FieldPath, path).
		add(FieldQuery, query).
		add(FieldClientIP, clientIP)
}

func (f Fields) WithHTTPResponse(statusCode int, durationMs int64) Fields {
	return f.
		add(FieldStatusCode, statusCode).
		add(FieldDuration, durationMs).
		add(FieldSuccess, statusCode < 400)
}

// Args returns the fields as slog key/value arguments.
func (f Fields) Args() []any {
	return f
}
