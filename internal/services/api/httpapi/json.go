package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/NordCoder/Tasker/internal/apperr"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, e *apperr.Error) {
	writeJSON(w, e.Kind.HTTPStatus(), e.Body())
}

type message struct {
	Message string `json:"message"`
}

// decode reads a single JSON object into dst and validates it. Every
// failure is a BadRequest.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return apperr.BadRequest("Request body is required.")
	}
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.KindBadRequest, decodeMessage(err), err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperr.BadRequest("Request body must contain a single JSON object.")
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func decodeMessage(err error) string {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		maxErr    *http.MaxBytesError
	)
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return "Request body is not valid JSON."
	case errors.As(err, &typeErr):
		return fmt.Sprintf("%s has the wrong type.", typeErr.Field)
	case errors.As(err, &maxErr):
		return "Request body is too large."
	case errors.Is(err, io.EOF):
		return "Request body is required."
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return fmt.Sprintf("Unknown field %s.", strings.TrimPrefix(err.Error(), "json: unknown field "))
	default:
		return "Request body is invalid."
	}
}

// validationError reports the first failed rule.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.ServerFailed(err)
	}
	fe := verrs[0]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required.", fe.Field())
	case "email":
		msg = fmt.Sprintf("%s must be a valid email address.", fe.Field())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param())
	case "min":
		msg = fmt.Sprintf("%s must be at least %s characters.", fe.Field(), fe.Param())
	default:
		msg = fmt.Sprintf("%s is invalid.", fe.Field())
	}
	return apperr.Wrap(apperr.KindBadRequest, msg, err)
}
