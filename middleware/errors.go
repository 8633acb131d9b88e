package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tours-service/apperr"
	"tours-service/logger"
	"tours-service/repository"
	"tours-service/utils"
)

const genericMessage = "Something went wrong. Please try again later."

// Normalize maps any error from the handler chain to an apperr.Error.
// Unknown errors become internal errors carrying the original as cause.
func Normalize(err error) *apperr.Error {
	if e, ok := apperr.As(err); ok {
		return e
	}

	var dup *repository.DuplicateKeyError
	if errors.As(err, &dup) {
		if dup.On("user", "tour") {
			return apperr.Validation("You have already reviewed this tour. Each user can review a tour only once.").WithCause(err)
		}
		return apperr.Validation(fmt.Sprintf("Duplicate field value: %s. Please use another value!", dup.Value), dup.Fields...).WithCause(err)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
			fields = append(fields, fe.Field())
		}
		return apperr.Validation("Invalid input data. "+strings.Join(msgs, ". "), fields...).WithCause(err)
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return apperr.Auth("Your token has expired! Please log in again.").WithCause(err)
	}
	if isJWTError(err) {
		return apperr.Auth("Invalid token. Please log in again!").WithCause(err)
	}

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return apperr.Validationf("Request body too large. Limit is %d bytes.", maxBytes.Limit).WithCause(err)
	}
	var syntax *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntax) || errors.Is(err, io.ErrUnexpectedEOF) {
		return apperr.Validation("Invalid JSON in request body.").WithCause(err)
	}
	if errors.As(err, &typeErr) {
		return apperr.Validationf("Invalid %s: expected %s", typeErr.Field, typeErr.Type.String()).WithCause(err)
	}

	return apperr.Unexpected(err, genericMessage)
}

func isJWTError(err error) bool {
	for _, target := range []error{
		jwt.ErrTokenMalformed,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenInvalidClaims,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenUsedBeforeIssued,
		jwt.ErrTokenRequiredClaimMissing,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Please provide a valid email"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "ltfield":
		return fmt.Sprintf("Discount price (%v) should be below regular price", fe.Value())
	case "len":
		return fmt.Sprintf("%s must have %s elements", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// ErrorHandler writes the error envelope for the last error a handler
// attached with c.Error. In development the response carries the raw error
// and stack; in production internal failures are reduced to a generic
// message and logged in full.
func ErrorHandler(log *slog.Logger, development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		appErr := Normalize(err)
		status := appErr.Status()

		span := trace.SpanFromContext(c.Request.Context())
		span.RecordError(err)
		span.SetStatus(codes.Error, appErr.Message)

		l := logger.FromContext(c.Request.Context(), log)
		if status >= http.StatusInternalServerError {
			l.Error("request failed", "error", err, "stack", stackOf(err))
		} else {
			l.Debug("request rejected", "status", status, "error", err)
		}

		if c.Writer.Written() {
			return
		}

		body := utils.Envelope{Status: utils.StatusFor(status), Message: appErr.Message}
		if development {
			body.Error = err.Error()
			body.Stack = stackOf(err)
			if !appErr.Operational() && appErr.Cause != nil {
				body.Message = appErr.Cause.Error()
			}
		}
		c.JSON(status, body)
	}
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// stackOf returns the innermost recorded stack of err.
func stackOf(err error) string {
	var st stackTracer
	var found string
	for e := err; e != nil; e = errors.Unwrap(e) {
		if s, ok := e.(stackTracer); ok {
			st = s
			found = fmt.Sprintf("%+v", st.StackTrace())
		}
	}
	return found
}

// Recovery converts a panic into an internal error handled by ErrorHandler.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		_ = c.Error(pkgerrors.Errorf("panic: %v", rec))
		c.Abort()
	})
}

// NotFound handles unmatched routes.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = c.Error(apperr.NotFoundf("Can't find %s on this server!", c.Request.URL.Path))
	}
}
