// internal/common/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	// Conversation
	ErrCodeMissingEntities ErrorCode = "MISSING_ENTITIES"
	ErrCodeHandlerPanic    ErrorCode = "HANDLER_PANIC"

	// Classification
	ErrCodeClassifierFailed          ErrorCode = "CLASSIFIER_FAILED"
	ErrCodeClassifierTimeout         ErrorCode = "CLASSIFIER_TIMEOUT"
	ErrCodeClassifierMalformedOutput ErrorCode = "CLASSIFIER_MALFORMED_OUTPUT"

	// Collaborators
	ErrCodeCollaboratorFailed   ErrorCode = "COLLABORATOR_FAILED"
	ErrCodeQueryExecutionFailed ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout         ErrorCode = "QUERY_TIMEOUT"
	ErrCodeResourceNotFound     ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeDuplicateRecord      ErrorCode = "DUPLICATE_RECORD"
	ErrCodeSearchQueryFailed    ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeGenAIRequestFailed   ErrorCode = "GENAI_REQUEST_FAILED"
	ErrCodeGenAITimeout         ErrorCode = "GENAI_TIMEOUT"

	// Infrastructure
	ErrCodeSessionStoreFailed     ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInputParsingFailed     ErrorCode = "INPUT_PARSING_FAILED"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value pair and returns e.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewMissingEntitiesError(fields []string) *StandardError {
	return newError(ErrCodeMissingEntities, "Required details missing", strings.Join(fields, ", "), false).
		WithMetadata("fields", fields)
}

func NewHandlerPanicError(intent string, recovered interface{}) *StandardError {
	return newError(ErrCodeHandlerPanic, "Handler panicked", fmt.Sprintf("intent: %s, panic: %v", intent, recovered), false)
}

func NewClassifierFailedError(err error) *StandardError {
	return newError(ErrCodeClassifierFailed, "Intent classification call failed", err.Error(), false)
}

func NewClassifierTimeoutError() *StandardError {
	return newError(ErrCodeClassifierTimeout, "Intent classification timed out", "classifier call exceeded its deadline", false)
}

func NewClassifierMalformedOutputError(details string) *StandardError {
	return newError(ErrCodeClassifierMalformedOutput, "Intent classifier returned malformed output", details, false)
}

// NewCollaboratorError wraps an error payload returned by an external capability.
func NewCollaboratorError(message string) *StandardError {
	return newError(ErrCodeCollaboratorFailed, message, "", false)
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewQueryTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("queryType: %s", queryType), true)
}

func NewResourceNotFoundError(resource, details string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("%s not found", resource), details, false)
}

func NewDuplicateRecordError(message string) *StandardError {
	return newError(ErrCodeDuplicateRecord, message, "", false)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Search query error", fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewGenAIRequestFailedError(err error) *StandardError {
	return newError(ErrCodeGenAIRequestFailed, "Text completion request failed", err.Error(), true)
}

func NewGenAITimeoutError() *StandardError {
	return newError(ErrCodeGenAITimeout, "Text completion timeout", "completion call exceeded timeout threshold", true)
}

func NewSessionStoreFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeSessionStoreFailed, "Session store error", fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed", fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

func NewInputParsingFailedError(err error) *StandardError {
	return newError(ErrCodeInputParsingFailed, "Failed to parse job variables", err.Error(), false)
}

// AsStandardError unwraps err to a StandardError when one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// UserMessage renders a collaborator error as the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	stdErr, ok := AsStandardError(err)
	if !ok {
		return err.Error()
	}
	switch stdErr.Code {
	case ErrCodeCollaboratorFailed, ErrCodeResourceNotFound, ErrCodeDuplicateRecord:
		if stdErr.Details != "" {
			return stdErr.Message + ": " + stdErr.Details
		}
		return stdErr.Message
	default:
		return stdErr.Message
	}
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInputParsingFailed:     "INPUT_PARSING_FAILED",
	ErrCodeSessionStoreFailed:     "SESSION_STORE_FAILED",
	ErrCodeQueryExecutionFailed:   "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:           "QUERY_TIMEOUT",
	ErrCodeSearchQueryFailed:      "SEARCH_QUERY_FAILED",
	ErrCodeGenAIRequestFailed:     "GENAI_REQUEST_FAILED",
	ErrCodeGenAITimeout:           "GENAI_TIMEOUT",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSessionStoreFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeGenAIRequestFailed,
		ErrCodeNotificationSendFailed:
		return 3
	case ErrCodeQueryTimeout,
		ErrCodeGenAITimeout:
		return 2
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}
	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CLASSIFIER") || strings.Contains(codeStr, "GENAI"):
		return "AI"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "DUPLICATE") || strings.Contains(codeStr, "RESOURCE"):
		return "DATABASE"
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "MISSING") || strings.Contains(codeStr, "PARSING"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
