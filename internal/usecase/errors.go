package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

type HTTPError struct {
	Status  int
	Message string

	// 入力エラーの項目別メッセージ
	Fields map[string]string
	// 決済ゲートウェイのエラーコード（502のとき）
	Code *int
}

func (e *HTTPError) Error() string {
	if e.Code != nil {
		return fmt.Sprintf("%d: %s (code %d)", e.Status, e.Message, *e.Code)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func validationError(field string, message string) error {
	return &HTTPError{
		Status:  http.StatusBadRequest,
		Message: message,
		Fields:  map[string]string{field: message},
	}
}

func remoteGatewayError(code int, message string) error {
	return &HTTPError{
		Status:  http.StatusBadGateway,
		Message: message,
		Code:    &code,
	}
}

var (
	errUnauthorized = NewHTTPError(http.StatusUnauthorized, "unauthorized")
	errForbidden    = NewHTTPError(http.StatusForbidden, "forbidden")
	errNotFound     = NewHTTPError(http.StatusNotFound, "not found")
	errDB           = NewHTTPError(http.StatusInternalServerError, "db error")
)
