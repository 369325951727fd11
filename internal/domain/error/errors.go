package error

import (
	"errors"
	"fmt"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeInvalidProfile      = 4001
	CodeInvalidPrompt       = 4002
	CodeInvalidVoucherCode  = 4003
	CodeInvalidCreditAmount = 4004
	CodeInvalidMaxUses      = 4005
	CodeVoucherExhausted    = 4006
	CodeVoucherExpired      = 4007
	CodeInvalidRequest      = 4008
	CodeUnauthenticated     = 4010
	CodeForbidden           = 4030
	CodeCreditsExhausted    = 4031
	CodeAccountNotFound     = 4032
	CodeVoucherNotFound     = 4040
	CodeRateLimited         = 4290

	// 5xxx - Server errors
	CodeInternalServer       = 5000
	CodeDuplicateVoucherCode = 5001
	CodeConstraintViolation  = 5002
	CodeDatabaseConnection   = 5003
	CodeUpstreamFailure      = 5020
)

// Kind groups errors by how callers are expected to react to them.
type Kind int

const (
	KindInternalFailure Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindBusinessRuleViolation
	KindUpstreamFailure
	KindRateLimited
)

// String returns the kind name used in logs
func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindBusinessRuleViolation:
		return "business_rule_violation"
	case KindUpstreamFailure:
		return "upstream_failure"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal_failure"
	}
}

// Base error types
var (
	// ErrUnauthenticated is returned when a request carries no valid session
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden is returned when the caller lacks the required privilege
	ErrForbidden = errors.New("forbidden")

	// ErrAccountNotFound is returned when no account exists for the caller's email
	ErrAccountNotFound = errors.New("account not found")

	// ErrVoucherNotFound is returned when no voucher matches the submitted code
	ErrVoucherNotFound = errors.New("invalid code")

	// ErrCreditsExhausted is returned when an account has no remaining credits
	ErrCreditsExhausted = errors.New("no credits remaining")

	// ErrVoucherExhausted is returned when a voucher has no remaining uses
	ErrVoucherExhausted = errors.New("code already used")

	// ErrVoucherExpired is returned when a voucher is past its expiry time
	ErrVoucherExpired = errors.New("code expired")

	// ErrInvalidProfile is returned when an identity profile carries no email
	ErrInvalidProfile = errors.New("profile email is required")

	// ErrInvalidPrompt is returned when the prompt is missing or empty
	ErrInvalidPrompt = errors.New("prompt is required")

	// ErrInvalidVoucherCode is returned when the submitted code is missing or empty
	ErrInvalidVoucherCode = errors.New("code is required")

	// ErrInvalidCreditAmount is returned when a voucher is issued with a non-positive amount
	ErrInvalidCreditAmount = errors.New("credit amount must be positive")

	// ErrInvalidMaxUses is returned when a voucher is issued with non-positive uses
	ErrInvalidMaxUses = errors.New("max uses must be positive")

	// ErrInvalidRequest is returned when the request format is invalid
	ErrInvalidRequest = errors.New("invalid request")

	// ErrRateLimited is returned when a caller exceeds the request budget
	ErrRateLimited = errors.New("too many requests")

	// ErrUpstreamFailure is returned when the completion service fails
	ErrUpstreamFailure = errors.New("completion service failed")

	// ErrDuplicateVoucherCode is returned when a generated code collides with an existing one
	ErrDuplicateVoucherCode = errors.New("voucher code already exists")

	// ErrConstraintViolation is returned when a database constraint is violated
	ErrConstraintViolation = errors.New("database constraint violation")

	// ErrDatabaseConnection is returned when there's a problem connecting to the database
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")
)

type classification struct {
	target error
	code   int
	reason string
	kind   Kind
}

// Ordered from most to least specific; the first match wins.
var classifications = []classification{
	{ErrUnauthenticated, CodeUnauthenticated, "unauthenticated", KindUnauthenticated},
	{ErrForbidden, CodeForbidden, "forbidden", KindForbidden},
	{ErrCreditsExhausted, CodeCreditsExhausted, "credits_exhausted", KindBusinessRuleViolation},
	{ErrAccountNotFound, CodeAccountNotFound, "account_not_found", KindNotFound},
	{ErrVoucherNotFound, CodeVoucherNotFound, "voucher_not_found", KindNotFound},
	{ErrVoucherExhausted, CodeVoucherExhausted, "voucher_exhausted", KindBusinessRuleViolation},
	{ErrVoucherExpired, CodeVoucherExpired, "voucher_expired", KindBusinessRuleViolation},
	{ErrInvalidProfile, CodeInvalidProfile, "invalid_profile", KindBusinessRuleViolation},
	{ErrInvalidPrompt, CodeInvalidPrompt, "invalid_prompt", KindBusinessRuleViolation},
	{ErrInvalidVoucherCode, CodeInvalidVoucherCode, "invalid_code", KindBusinessRuleViolation},
	{ErrInvalidCreditAmount, CodeInvalidCreditAmount, "invalid_credit_amount", KindBusinessRuleViolation},
	{ErrInvalidMaxUses, CodeInvalidMaxUses, "invalid_max_uses", KindBusinessRuleViolation},
	{ErrInvalidRequest, CodeInvalidRequest, "invalid_request", KindBusinessRuleViolation},
	{ErrRateLimited, CodeRateLimited, "rate_limited", KindRateLimited},
	{ErrUpstreamFailure, CodeUpstreamFailure, "upstream_failure", KindUpstreamFailure},
	{ErrDuplicateVoucherCode, CodeDuplicateVoucherCode, "duplicate_code", KindInternalFailure},
	{ErrConstraintViolation, CodeConstraintViolation, "constraint_violation", KindInternalFailure},
	{ErrDatabaseConnection, CodeDatabaseConnection, "database_unavailable", KindInternalFailure},
}

func classify(err error) (classification, bool) {
	if err == nil {
		return classification{}, false
	}
	for _, c := range classifications {
		if errors.Is(err, c.target) {
			return c, true
		}
	}
	return classification{}, false
}

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	if c, ok := classify(err); ok {
		return c.code
	}
	return CodeInternalServer
}

// Reason returns a stable machine-readable reason for err.
func Reason(err error) string {
	if c, ok := classify(err); ok {
		return c.reason
	}
	return "internal_error"
}

// Message returns a client-safe message for err. Typed errors carry store
// identifiers in Error(), so only the matched sentinel text is exposed.
func Message(err error) string {
	if c, ok := classify(err); ok && c.kind != KindInternalFailure {
		return c.target.Error()
	}
	return ErrInternalServer.Error()
}

// KindOf returns the kind of err. Unknown errors are internal failures.
func KindOf(err error) Kind {
	if c, ok := classify(err); ok {
		return c.kind
	}
	return KindInternalFailure
}

// CreditsExhaustedError provides detailed error information for a denied consumption
type CreditsExhaustedError struct {
	AccountID int64
	Total     int64
	Used      int64
}

// Error implements the error interface
func (e *CreditsExhaustedError) Error() string {
	return fmt.Sprintf("no credits remaining for account %d (total: %d, used: %d)",
		e.AccountID, e.Total, e.Used)
}

// Is checks if the target error is an ErrCreditsExhausted
func (e *CreditsExhaustedError) Is(target error) bool {
	return target == ErrCreditsExhausted
}

// LogFields returns a map of fields for structured logging
func (e *CreditsExhaustedError) LogFields() map[string]any {
	return map[string]any{
		"error_type":    "credits_exhausted",
		"account_id":    e.AccountID,
		"total_credits": e.Total,
		"used_credits":  e.Used,
		"error_code":    CodeCreditsExhausted,
	}
}

// NewCreditsExhaustedError creates a new detailed credits exhausted error
func NewCreditsExhaustedError(accountID, total, used int64) error {
	return &CreditsExhaustedError{
		AccountID: accountID,
		Total:     total,
		Used:      used,
	}
}

// UpstreamError describes a failed call to the completion service.
// Status is zero when no HTTP response was received.
type UpstreamError struct {
	Status int
	Body   string
	Err    error
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("completion service unreachable: %v", e.Err)
	}
	return fmt.Sprintf("completion service error %d: %s", e.Status, e.Body)
}

// Is checks if the target error is an ErrUpstreamFailure
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamFailure
}

// Unwrap returns the underlying error
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *UpstreamError) LogFields() map[string]any {
	fields := map[string]any{
		"error_type":  "upstream_error",
		"http_status": e.Status,
		"body":        e.Body,
		"error_code":  CodeUpstreamFailure,
	}
	if e.Err != nil {
		fields["error"] = e.Err.Error()
	}
	return fields
}

// NewUpstreamError creates a new upstream error
func NewUpstreamError(status int, body string, err error) error {
	return &UpstreamError{Status: status, Body: body, Err: err}
}

// VoucherError represents an error related to a voucher operation
type VoucherError struct {
	Code   string
	Email  string
	Reason string
	Err    error
}

// Error implements the error interface for VoucherError
func (e *VoucherError) Error() string {
	return fmt.Sprintf("voucher %s for %s: %s - %v", e.Code, e.Email, e.Reason, e.Err)
}

// Unwrap returns the underlying error
func (e *VoucherError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *VoucherError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "voucher_error",
		"code":       e.Code,
		"email":      e.Email,
		"reason":     e.Reason,
		"error":      e.Err.Error(),
		"error_code": ErrorCode(e.Err),
	}
}

// NewVoucherError creates a detailed voucher error
func NewVoucherError(code, email, reason string, err error) error {
	return &VoucherError{Code: code, Email: email, Reason: reason, Err: err}
}

// IsNotFoundError checks if the error is any "not found" type of error
func IsNotFoundError(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsBusinessRuleViolation checks if the error rejects the request without side effects
func IsBusinessRuleViolation(err error) bool {
	return KindOf(err) == KindBusinessRuleViolation
}

// IsUpstreamError checks if the error comes from the completion service
func IsUpstreamError(err error) bool {
	return errors.Is(err, ErrUpstreamFailure)
}
