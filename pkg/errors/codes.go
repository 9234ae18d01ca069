package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeNotImplemented     ErrorCode = "COMMON_012"
)

// Database Error Codes
const (
	ErrCodeDBConnection ErrorCode = "DB_001"
	ErrCodeDBQuery      ErrorCode = "DB_002"
	ErrCodeDBMigration  ErrorCode = "DB_003"
	ErrCodeDBTxn        ErrorCode = "DB_004"
)

// Cache Error Codes
const (
	ErrCodeCacheError         ErrorCode = "CACHE_001"
	ErrCodeCacheSerialization ErrorCode = "CACHE_002"
)

// Message Queue Error Codes
const (
	ErrCodeMQPublish ErrorCode = "MQ_001"
	ErrCodeMQConsume ErrorCode = "MQ_002"
)

// Object Storage Error Codes
const (
	ErrCodeStorageError         ErrorCode = "STORAGE_001"
	ErrCodeStorageObjectMissing ErrorCode = "STORAGE_002"
)

// Ship Module Error Codes
const (
	ErrCodeShipNotFound          ErrorCode = "SHIP_001"
	ErrCodeShipAlreadyExists     ErrorCode = "SHIP_002"
	ErrCodeShipIMOInvalid        ErrorCode = "SHIP_003"
	ErrCodeShipAnchorsIncomplete ErrorCode = "SHIP_004"
)

// Certificate Module Error Codes
const (
	ErrCodeCertificateNotFound      ErrorCode = "CERT_001"
	ErrCodeCertificateAlreadyExists ErrorCode = "CERT_002"
	ErrCodeCertificateDatesInvalid  ErrorCode = "CERT_003"
)

// Equipment Module Error Codes
const (
	ErrCodeEquipmentRecordNotFound  ErrorCode = "EQUIP_001"
	ErrCodeEquipmentRecordInvalid   ErrorCode = "EQUIP_002"
	ErrCodeEquipmentRecordDuplicate ErrorCode = "EQUIP_003"
)

// Scheduling Module Error Codes
const (
	ErrCodeMissingRequiredDate ErrorCode = "SCHED_001"
	ErrCodeUnknownDOCCategory  ErrorCode = "SCHED_002"
	ErrCodeRecalcFailed        ErrorCode = "SCHED_003"
)

// Short aliases for the codes used pervasively across layers.
const (
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeUnauthorized   = ErrCodeUnauthorized
	CodeForbidden      = ErrCodeForbidden
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeRateLimit      = ErrCodeTooManyRequests
	CodeNotImplemented = ErrCodeNotImplemented

	CodeDBConnectionError = ErrCodeDBConnection
	CodeDatabaseError     = ErrCodeDBQuery
	CodeCacheError        = ErrCodeCacheError
	CodeMessageQueueError = ErrCodeMQPublish
	CodeStorageError      = ErrCodeStorageError

	CodeShipNotFound        = ErrCodeShipNotFound
	CodeCertificateNotFound = ErrCodeCertificateNotFound
	CodeMissingRequiredDate = ErrCodeMissingRequiredDate

	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "UNKNOWN"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeDBConnection: http.StatusInternalServerError,
	ErrCodeDBQuery:      http.StatusInternalServerError,
	ErrCodeDBMigration:  http.StatusInternalServerError,
	ErrCodeDBTxn:        http.StatusInternalServerError,

	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeCacheSerialization: http.StatusInternalServerError,

	ErrCodeMQPublish: http.StatusInternalServerError,
	ErrCodeMQConsume: http.StatusInternalServerError,

	ErrCodeStorageError:         http.StatusInternalServerError,
	ErrCodeStorageObjectMissing: http.StatusNotFound,

	ErrCodeShipNotFound:          http.StatusNotFound,
	ErrCodeShipAlreadyExists:     http.StatusConflict,
	ErrCodeShipIMOInvalid:        http.StatusBadRequest,
	ErrCodeShipAnchorsIncomplete: http.StatusUnprocessableEntity,

	ErrCodeCertificateNotFound:      http.StatusNotFound,
	ErrCodeCertificateAlreadyExists: http.StatusConflict,
	ErrCodeCertificateDatesInvalid:  http.StatusUnprocessableEntity,

	ErrCodeEquipmentRecordNotFound:  http.StatusNotFound,
	ErrCodeEquipmentRecordInvalid:   http.StatusUnprocessableEntity,
	ErrCodeEquipmentRecordDuplicate: http.StatusConflict,

	ErrCodeMissingRequiredDate: http.StatusUnprocessableEntity,
	ErrCodeUnknownDOCCategory:  http.StatusBadRequest,
	ErrCodeRecalcFailed:        http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeDBConnection: "database connection failed",
	ErrCodeDBQuery:      "database query failed",
	ErrCodeDBMigration:  "database migration failed",
	ErrCodeDBTxn:        "database transaction failed",

	ErrCodeCacheError:         "cache error",
	ErrCodeCacheSerialization: "cache serialization failed",

	ErrCodeMQPublish: "failed to publish message",
	ErrCodeMQConsume: "failed to consume message",

	ErrCodeStorageError:         "object storage error",
	ErrCodeStorageObjectMissing: "object not found in storage",

	ErrCodeShipNotFound:          "ship not found",
	ErrCodeShipAlreadyExists:     "ship already exists",
	ErrCodeShipIMOInvalid:        "invalid IMO number",
	ErrCodeShipAnchorsIncomplete: "ship anniversary anchors incomplete",

	ErrCodeCertificateNotFound:      "certificate not found",
	ErrCodeCertificateAlreadyExists: "certificate already exists",
	ErrCodeCertificateDatesInvalid:  "certificate dates are inconsistent",

	ErrCodeEquipmentRecordNotFound:  "equipment test record not found",
	ErrCodeEquipmentRecordInvalid:   "equipment test record invalid",
	ErrCodeEquipmentRecordDuplicate: "equipment test record already exists",

	ErrCodeMissingRequiredDate: "required date is missing",
	ErrCodeUnknownDOCCategory:  "unknown DOC certificate category",
	ErrCodeRecalcFailed:        "schedule recalculation failed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
