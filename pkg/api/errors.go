package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/logger"
)

// ErrorHandler renders every error as an ErrorResponse. AppErrors keep their
// code and status; echo errors keep theirs. The trace id of the request span
// is echoed back when there is one.
func ErrorHandler(log logger.LoggerInterface) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorBody(err)
		if sc := trace.SpanContextFromContext(c.Request().Context()); sc.HasTraceID() {
			body.TraceID = sc.TraceID().String()
		}
		if status >= http.StatusInternalServerError {
			log.Error(c.Request().Context(), "request failed", "path", c.Path(), "error", err)
		}
		_ = c.JSON(status, ErrorResponse{Error: body})
	}
}

func errorBody(err error) (int, ErrorBody) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode, ErrorBody{
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Context: appErr.Context,
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code := apperror.CodeInternalError
		switch he.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			code = apperror.CodeNotFound
		case http.StatusTooManyRequests:
			code = apperror.CodeRateLimitExceeded
		case http.StatusBadRequest:
			code = apperror.CodeInvalidInput
		}
		return he.Code, ErrorBody{Code: string(code), Message: http.StatusText(he.Code)}
	}

	return http.StatusInternalServerError, ErrorBody{
		Code:    string(apperror.CodeInternalError),
		Message: http.StatusText(http.StatusInternalServerError),
	}
}
