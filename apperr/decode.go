package apperr

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// Decode classifies a request body decoding failure. Syntax, type and size
// errors pass through for the error handler to report. Anything else a
// field's decoder rejected, such as a malformed ObjectId, is a validation
// error.
func Decode(err error) error {
	if err == nil {
		return nil
	}
	var (
		syntax   *json.SyntaxError
		typeErr  *json.UnmarshalTypeError
		maxBytes *http.MaxBytesError
		appErr   *Error
	)
	switch {
	case errors.As(err, &syntax), errors.As(err, &typeErr), errors.As(err, &maxBytes),
		errors.As(err, &appErr), errors.Is(err, io.ErrUnexpectedEOF):
		return err
	}
	return Validation("Invalid input data. " + err.Error()).WithCause(err)
}
