// Package httpx writes the JSON envelopes shared by every HTTP handler and maps
// apperr values to status codes.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"

	"go.uber.org/zap"

	"org-access-api/backend/internal/platform/apperr"
)

// maxBodyBytes caps request bodies read by Decode.
const maxBodyBytes = 1 << 20

// Envelope is the body of every non-validation response.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// successEnvelope omits data when the handler has none to return.
type successEnvelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type validationBody struct {
	Errors []apperr.FieldError `json:"errors"`
}

// authFailedBody is the single login failure body. It is written as fixed bytes so every
// failure cause produces an identical response.
var authFailedBody = []byte(`{"status":"Bad request","message":"Authentication failed","statusCode":401}` + "\n")

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("httpx: encode response", zap.Error(err))
	}
}

// Success writes {status:"success", message, data}. data may be nil.
func Success(w http.ResponseWriter, status int, message string, data interface{}) {
	JSON(w, status, successEnvelope{Status: "success", Message: message, Data: data})
}

// Fail writes a client error: {status:"fail", message, data:null}.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Status: "fail", Message: message})
}

// Error writes {status:"error", message, data:null}. Used for token failures and internal errors.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Status: "error", Message: message})
}

// Validation writes 422 {errors:[{field,message}]}.
func Validation(w http.ResponseWriter, ve *apperr.ValidationError) {
	errs := ve.Errors
	if errs == nil {
		errs = []apperr.FieldError{}
	}
	JSON(w, http.StatusUnprocessableEntity, validationBody{Errors: errs})
}

// AuthFailed writes the login failure response.
func AuthFailed(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write(authFailedBody)
}

// Internal logs err and writes a sanitized 500.
func Internal(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	if log == nil {
		log = zap.L()
	}
	log.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	Error(w, http.StatusInternalServerError, "Internal server error")
}

// WriteError maps err to a response: validation errors to 422, apperr sentinels to their
// status with a generic message, anything else to a sanitized 500.
func WriteError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	if ve, ok := apperr.AsValidation(err); ok {
		Validation(w, ve)
		return
	}
	switch {
	case errors.Is(err, apperr.ErrAuthFailed):
		AuthFailed(w)
	case errors.Is(err, apperr.ErrNotFound):
		Fail(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, apperr.ErrForbidden):
		Fail(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, apperr.ErrBadRequest):
		Fail(w, http.StatusBadRequest, "Bad request")
	default:
		Internal(w, r, log, err)
	}
}

// Decode reads a JSON object from the request body into v. An empty body leaves v unchanged.
// A field of the wrong JSON type returns a *apperr.ValidationError naming the field; other
// malformed JSON returns an error wrapping apperr.ErrBadRequest.
func Decode(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperr.Invalid(typeErr.Field, typeErr.Field+" must be "+jsonKind(typeErr.Type))
		}
		return errors.Join(apperr.ErrBadRequest, err)
	}
	return nil
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "a value"
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "an object"
	}
}
