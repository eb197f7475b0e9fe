package natours

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/aasimohyeah/natours/apifeatures"
)

var (
	// ErrNotFound is wrapped by collections when no document has the given id.
	ErrNotFound = errors.New("not found")
	// ErrNotImplemented is returned for features a storage backend lacks.
	ErrNotImplemented = errors.New("not implemented by this storage backend")
	// ErrInvalidID matches every *CastError.
	ErrInvalidID = errors.New("invalid id")
	// ErrDuplicate matches every *DuplicateError.
	ErrDuplicate = errors.New("duplicate key")
)

// AppError is an error with a known HTTP status. Operational errors carry a
// message that is safe to show to clients.
type AppError struct {
	StatusCode  int
	Message     string
	Operational bool
	Err         error
}

// NewAppError returns an operational error.
func NewAppError(code int, message string) *AppError {
	return &AppError{StatusCode: code, Message: message, Operational: true}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Status is "fail" for client errors and "error" otherwise.
func (e *AppError) Status() string {
	return statusText(e.StatusCode)
}

func statusText(code int) string {
	if strings.HasPrefix(strconv.Itoa(code), "4") {
		return "fail"
	}
	return "error"
}

// CastError reports an identifier or value of the wrong shape.
type CastError struct {
	Path  string
	Value string
	Err   error
}

func (e *CastError) Error() string {
	return fmt.Sprintf("Invalid %s: %s", e.Path, e.Value)
}

func (e *CastError) Unwrap() error { return e.Err }

func (e *CastError) Is(target error) bool { return target == ErrInvalidID }

// DuplicateError reports a unique-index violation. Field and Value are
// empty when the storage engine does not say which key collided.
type DuplicateError struct {
	Field string
	Value string
	Err   error
}

func (e *DuplicateError) Error() string {
	if e.Value == "" {
		return "Duplicate field value. Please use another value!"
	}
	return fmt.Sprintf("Duplicate field value: '%s'. Please use another value!", e.Value)
}

func (e *DuplicateError) Unwrap() error { return e.Err }

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

const msgUnexpected = "Something went wrong!"

// Mode selects how much of an unexpected error reaches the client.
type Mode string

const (
	Development Mode = "development"
	Production  Mode = "production"
)

const ctxModeKey = "natours.mode"

// UseMode stores mode on every request so Translate can read it.
func UseMode(mode Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxModeKey, mode)
		c.Next()
	}
}

// ModeOf returns the mode set by UseMode, Production when unset.
func ModeOf(c *gin.Context) Mode {
	if c != nil {
		if m, ok := c.Get(ctxModeKey); ok {
			if mode, ok := m.(Mode); ok {
				return mode
			}
		}
	}
	return Production
}

// Fail builds a JSend error response.
func Fail(code int, message string) *StageError {
	return &StageError{
		Code: code,
		Obj:  H{"status": statusText(code), "message": message},
	}
}

// Translate maps err to the response the client sees. Known client-side
// errors become 4xx responses with their own message; anything else is a
// 500 whose details are only shown in Development mode.
func Translate(err error, mode Mode) *StageError {
	appErr := classify(err)

	if !appErr.Operational && mode != Development {
		se := Fail(http.StatusInternalServerError, msgUnexpected)
		se.Err = err
		return se
	}

	se := Fail(appErr.StatusCode, appErr.Message)
	se.Err = err
	if mode == Development {
		se.Obj.(H)["error"] = err.Error()
	}
	return se
}

func classify(err error) *AppError {
	var (
		chainErr  ChainExecutionError
		appErr    *AppError
		queryErr  *apifeatures.ClientQueryError
		castErr   *CastError
		dupErr    *DuplicateError
		validErrs validator.ValidationErrors
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		tooLarge  *http.MaxBytesError
	)

	switch {
	case errors.As(err, &chainErr):
		return &AppError{StatusCode: chainErr.StageError.Code, Message: chainErr.StageError.Message(), Operational: true, Err: err}
	case errors.As(err, &appErr):
		return appErr
	case errors.As(err, &queryErr):
		return &AppError{StatusCode: http.StatusBadRequest, Message: queryErr.Error(), Operational: true, Err: err}
	case errors.As(err, &castErr):
		return &AppError{StatusCode: http.StatusBadRequest, Message: castErr.Error(), Operational: true, Err: err}
	case errors.As(err, &dupErr):
		return &AppError{StatusCode: http.StatusBadRequest, Message: dupErr.Error(), Operational: true, Err: err}
	case errors.As(err, &validErrs):
		return &AppError{StatusCode: http.StatusBadRequest, Message: validationMessage(validErrs), Operational: true, Err: err}
	case errors.As(err, &tooLarge):
		return &AppError{StatusCode: http.StatusRequestEntityTooLarge, Message: "Request body too large", Operational: true, Err: err}
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return &AppError{StatusCode: http.StatusBadRequest, Message: "Invalid input data. " + err.Error(), Operational: true, Err: err}
	case errors.Is(err, ErrNotFound):
		return &AppError{StatusCode: http.StatusNotFound, Message: "No document found with that ID", Operational: true, Err: err}
	case errors.Is(err, ErrNotImplemented):
		return &AppError{StatusCode: http.StatusNotImplemented, Message: "This feature is not available", Operational: true, Err: err}
	}
	return &AppError{StatusCode: http.StatusInternalServerError, Message: msgUnexpected, Err: err}
}

func validationMessage(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		if fe.Tag() == "required" {
			msgs = append(msgs, "Missing "+fe.Field())
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return "Invalid input data. " + strings.Join(msgs, ". ")
}
