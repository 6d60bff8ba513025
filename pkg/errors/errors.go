package errors

import "fmt"

// Error codes
const (
	CodeBotError   = "BOT_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeStore      = "STORE_ERROR"
	CodeTransport  = "TRANSPORT_ERROR"
	CodeService    = "SERVICE_ERROR"
)

// BotError is the base error type for infrastructure failures. The core
// intent pipeline never returns these for user text; they cover stores,
// transports, and wiring.
type BotError struct {
	Message string
	Code    string
	Context map[string]any
	Cause   error
}

func (e *BotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BotError) Unwrap() error {
	return e.Cause
}

func NewBotError(message, code string, context map[string]any) *BotError {
	return &BotError{
		Message: message,
		Code:    code,
		Context: context,
	}
}

func (e *BotError) WithCause(cause error) *BotError {
	e.Cause = cause
	return e
}

// ValidationError marks catalog or configuration defects detected at load
// time, before any conversation begins.
type ValidationError struct {
	*BotError
	Field string
	Value any
}

func NewValidationError(message, field string, value any) *ValidationError {
	return &ValidationError{
		BotError: &BotError{
			Message: message,
			Code:    CodeValidation,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

// StoreError wraps session-store and trip-store failures.
type StoreError struct {
	*BotError
	Operation string
	Key       string
}

func NewStoreError(message, operation, key string, cause error) *StoreError {
	return &StoreError{
		BotError: &BotError{
			Message: message,
			Code:    CodeStore,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

// TransportError wraps chat-bridge failures.
type TransportError struct {
	*BotError
	Endpoint string
}

func NewTransportError(message, endpoint string, cause error) *TransportError {
	return &TransportError{
		BotError: &BotError{
			Message: message,
			Code:    CodeTransport,
			Context: map[string]any{
				"endpoint": endpoint,
			},
			Cause: cause,
		},
		Endpoint: endpoint,
	}
}

// ServiceError wraps failures in assembled services.
type ServiceError struct {
	*BotError
	Service   string
	Operation string
}

func NewServiceError(message, service, operation string, cause error) *ServiceError {
	return &ServiceError{
		BotError: &BotError{
			Message: message,
			Code:    CodeService,
			Context: map[string]any{
				"service":   service,
				"operation": operation,
			},
			Cause: cause,
		},
		Service:   service,
		Operation: operation,
	}
}
