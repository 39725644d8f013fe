// Package errors contains helper functions and types to work with errors
package errors

import (
	"errors"
	"net/http"
)

// Category defines error category
type Category int

const (
	// CategoryNoError is used when a section or request completed without error.
	CategoryNoError Category = iota
	// CategoryDataError A record or request carried invalid data, for example a
	// numeric field that is missing or not numeric.
	CategoryDataError
	// CategoryResourceNotFound The caller asked for a resource (pipeline, result set) that does not exist
	CategoryResourceNotFound
	// CategoryDataConflict The data contradicts an explicit policy, e.g. a duplicated identifier
	CategoryDataConflict
	// CategoryDependencyFailure The indexer endpoint failed or answered without usable data
	CategoryDependencyFailure
	// CategoryGeneralError The service failed in an unexpected way
	CategoryGeneralError
	// CategoryConnectionTimeout Connection to the indexer timed out
	CategoryConnectionTimeout
	// CategoryRateLimited The caller exceeded the report request rate
	CategoryRateLimited
)

func (c Category) String() string {
	switch c {
	case CategoryNoError:
		return "CategoryNoError"
	case CategoryDataError:
		return "CategoryDataError"
	case CategoryResourceNotFound:
		return "CategoryResourceNotFound"
	case CategoryDataConflict:
		return "CategoryDataConflict"
	case CategoryDependencyFailure:
		return "CategoryDependencyFailure"
	case CategoryConnectionTimeout:
		return "CategoryConnectionTimeout"
	case CategoryRateLimited:
		return "CategoryRateLimited"
	default:
		return "CategoryGeneralError"
	}
}

// ServiceError represents service specific type that
// is used all over the services.
type ServiceError struct {
	Category Category
	Message  string
	// Detail carries diagnostic context: the raw response body of a failed
	// query or the name of the field that failed to decode.
	Detail string
	Err    error
}

// Error method to comply with error interface
func (err ServiceError) Error() string {
	if err.Err != nil {
		return err.Message + ": " + err.Err.Error()
	}
	return err.Message
}

// Unwrap returns the underlying error
func (err ServiceError) Unwrap() error {
	return err.Err
}

// Is checks that provided error is a ServiceError with desired Category
func Is(err error, cat Category) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Category == cat {
		return true
	}
	return false
}

// IsQueryFailure reports whether err is (or wraps) a QueryFailure.
func IsQueryFailure(err error) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr) && svcErr.Category == CategoryDependencyFailure && svcErr.Message == queryFailureMessage
}

// IsDecodeFailure reports whether err is (or wraps) a DecodeFailure.
func IsDecodeFailure(err error) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr) && svcErr.Category == CategoryDataError && svcErr.Message == decodeFailureMessage
}

const (
	queryFailureMessage  = "query failure"
	decodeFailureMessage = "decode failure"
)

// QueryFailure returns an error signalling that the indexer returned no usable
// result set: the response had no data object, or the targeted result set is absent.
// rawBody is kept for diagnosis.
func QueryFailure(err error, rawBody string) error {
	if err == nil {
		err = errors.New("no 'data' in GraphQL response")
	}
	return &ServiceError{
		Category: CategoryDependencyFailure,
		Message:  queryFailureMessage,
		Detail:   rawBody,
		Err:      err,
	}
}

// DecodeFailure returns an error signalling that a record field expected to be
// numeric was absent or not numeric.
func DecodeFailure(err error, field string) error {
	if err == nil {
		err = errors.New("missing value")
	}
	return &ServiceError{
		Category: CategoryDataError,
		Message:  decodeFailureMessage,
		Detail:   field,
		Err:      err,
	}
}

// DependencyError returns an error with category DependencyFailure for transport
// level failures (connection refused, non-2xx status)
func DependencyError(err error, message string) error {
	if err == nil {
		err = errors.New("dependency failure")
	}
	return &ServiceError{
		Category: CategoryDependencyFailure,
		Message:  message,
		Err:      err,
	}
}

// TimeoutError returns an error with category ConnectionTimeout
func TimeoutError(err error, message string) error {
	if err == nil {
		err = errors.New("timeout")
	}
	return &ServiceError{
		Category: CategoryConnectionTimeout,
		Message:  message,
		Err:      err,
	}
}

// ResourceNotFoundError returns an error with category ResourceNotFound
func ResourceNotFoundError(err error, message string) error {
	if err == nil {
		err = errors.New("resource not found: " + message)
	}
	return &ServiceError{
		Category: CategoryResourceNotFound,
		Message:  message,
		Err:      err,
	}
}

// ConflictError returns an error with category CategoryDataConflict
func ConflictError(err error, message string) error {
	if err == nil {
		err = errors.New("conflict")
	}
	return &ServiceError{
		Category: CategoryDataConflict,
		Message:  message,
		Err:      err,
	}
}

// RateLimitedError returns an error with category RateLimited
func RateLimitedError(message string) error {
	return &ServiceError{
		Category: CategoryRateLimited,
		Message:  message,
	}
}

// GeneralError returns a general service error
func GeneralError(err error) error {
	if err == nil {
		err = errors.New("internal error")
	}
	return &ServiceError{
		Category: CategoryGeneralError,
		Message:  "internal error",
		Err:      err,
	}
}

// StatusCode returns the HTTP status code for the error category
func (err ServiceError) StatusCode() int {
	switch err.Category {
	case CategoryDataError:
		return http.StatusBadRequest
	case CategoryResourceNotFound:
		return http.StatusNotFound
	case CategoryDataConflict:
		return http.StatusConflict
	case CategoryDependencyFailure:
		return http.StatusBadGateway
	case CategoryConnectionTimeout:
		return http.StatusGatewayTimeout
	case CategoryRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// StatusCode returns the HTTP status for any error, defaulting to 500 for
// errors that are not a ServiceError.
func StatusCode(err error) int {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.StatusCode()
	}
	return http.StatusInternalServerError
}
