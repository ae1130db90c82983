package log

import "github.com/shopspring/decimal"

// Field keys shared by every component.
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"

	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldUserAgent  = "user_agent"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldSuccess    = "success"

	FieldUserID        = "user_id"
	FieldTransactionID = "transaction_id"
	FieldAmount        = "amount"
	FieldCategory      = "category"
	FieldEventType     = "event_type"
	FieldEntity        = "entity"
)

const (
	ComponentApp         = "app"
	ComponentBackend     = "backend"
	ComponentHTTP        = "http"
	ComponentRateLimit   = "rate_limit"
	ComponentTransaction = "transaction"
	ComponentWorker      = "worker"
)

const (
	OpCreate = "create"
)

// LogFields accumulates key/value pairs for one log line. Methods mutate
// and return the receiver so calls can be chained.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) set(key string, value any) LogFields {
	f[key] = value
	return f
}

func (f LogFields) WithComponent(component string) LogFields {
	return f.set(FieldComponent, component)
}

func (f LogFields) WithOperation(op string) LogFields { return f.set(FieldOperation, op) }
func (f LogFields) WithRequestID(id string) LogFields { return f.set(FieldRequestID, id) }
func (f LogFields) WithClientIP(ip string) LogFields { return f.set(FieldClientIP, ip) }
func (f LogFields) WithUser(userID string) LogFields { return f.set(FieldUserID, userID) }

// WithError records err's message. A nil err leaves f unchanged.
func (f LogFields) WithError(err error) LogFields {
	if err == nil {
		return f
	}
	return f.set(FieldError, err.Error())
}

func (f LogFields) WithTransaction(id string, amount decimal.Decimal, category string) LogFields {
	return f.set(FieldTransactionID, id).
		set(FieldAmount, amount.String()).
		set(FieldCategory, category)
}

func (f LogFields) WithEvent(eventType, entity string) LogFields {
	return f.set(FieldEventType, eventType).set(FieldEntity, entity)
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	return f.set(FieldMethod, method).
		set(FieldPath, path).
		set(FieldQuery, query).
		set(FieldUserAgent, userAgent)
}

// WithHTTPResponse marks statuses below 400 as successful.
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	return f.set(FieldStatusCode, statusCode).
		set(FieldDuration, durationMs).
		set(FieldSuccess, statusCode < 400)
}

// ToSlice flattens f into slog's alternating key/value form.
func (f LogFields) ToSlice() []any {
	out := make([]any, 0, 2*len(f))
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}
