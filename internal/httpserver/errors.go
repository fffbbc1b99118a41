package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/finance_tracker/internal/logging"
	"github.com/Skotchmaster/finance_tracker/internal/service"
)

const (
	codeTokenExpired = "TOKEN_EXPIRED"
	codeTokenInvalid = "TOKEN_INVALID"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusFor maps an error to the response the client sees. Anything it does
// not recognise is a 500 with a generic body.
func statusFor(err error) (int, errorResponse) {
	var (
		he *echo.HTTPError
		ve *service.ValidationError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, errorResponse{Error: ve.Reason}
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, errorResponse{Error: "username taken"}
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials"}
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, errorResponse{Error: "invalid refresh token"}
	case errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, errorResponse{Error: "token expired", Code: codeTokenExpired}
	case errors.Is(err, service.ErrTokenInvalid):
		return http.StatusUnauthorized, errorResponse{Error: "invalid token", Code: codeTokenInvalid}
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "not found"}
	case errors.As(err, &he):
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		if he.Code >= http.StatusInternalServerError {
			msg = http.StatusText(http.StatusInternalServerError)
		}
		return he.Code, errorResponse{Error: msg}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"}
	}
}

// ErrorHandler renders every error as {"error": "..."}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("unhandled error", "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, body)
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("write error response", "error", werr)
	}
}
