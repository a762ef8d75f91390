package shared

import (
	"errors"
	"net/http"
)

// AppError is the error envelope handlers return upward. The HTTP error
// handler unwraps it into the standard response shape; anything that is not
// an AppError surfaces as a 500.
type AppError struct {
	StatusCode int
	Message    string
	Data       interface{}

	err error
}

func (e *AppError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.err
}

func NewAppError(statusCode int, err error, message string) *AppError {
	appErr := &AppError{
		StatusCode: statusCode,
		Message:    message,
		err:        err,
	}
	if err != nil {
		appErr.Data = err.Error()
	}
	return appErr
}

func NewBadRequestError(err error, message string) *AppError {
	return NewAppError(http.StatusBadRequest, err, message)
}

func NewUnauthorizedError(err error, message string) *AppError {
	return NewAppError(http.StatusUnauthorized, err, message)
}

func NewForbiddenError(err error, message string) *AppError {
	return NewAppError(http.StatusForbidden, err, message)
}

func NewNotFoundError(err error, message string) *AppError {
	return NewAppError(http.StatusNotFound, err, message)
}

func NewConflictError(err error, message string) *AppError {
	return NewAppError(http.StatusConflict, err, message)
}

func NewInternalError(err error, message string) *AppError {
	return NewAppError(http.StatusInternalServerError, err, message)
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
