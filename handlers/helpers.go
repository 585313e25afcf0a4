package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/gamejam/middleware"
	"github.com/Dosada05/gamejam/models"
	"github.com/Dosada05/gamejam/services"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

const maxJSONBytes = 1_048_576

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxJSONBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	if err := writeJSON(w, status, jsonResponse{"error": message}, nil); err != nil {
		slog.ErrorContext(r.Context(), "failed to write error response", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

// mapServiceErrorToHTTP turns a service error into a response by its kind.
// Internal errors are logged and replaced with a generic message.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch services.KindOf(err) {
	case services.KindValidation:
		errorResponse(w, r, http.StatusBadRequest, err.Error())
	case services.KindNotFound:
		errorResponse(w, r, http.StatusNotFound, err.Error())
	case services.KindConflict:
		errorResponse(w, r, http.StatusConflict, err.Error())
	case services.KindUnauthorized:
		errorResponse(w, r, http.StatusUnauthorized, err.Error())
	case services.KindForbidden:
		errorResponse(w, r, http.StatusForbidden, err.Error())
	default:
		serverErrorResponse(w, r, err)
	}
}

func getIDFromURL(r *http.Request, param string) (int, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", param, raw)
	}
	return id, nil
}

// currentIdentity fetches the caller placed by middleware.Authenticate and
// answers 401 itself when there is none.
func currentIdentity(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
	}
	return id, ok
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{ Validate() error }) bool {
	if err := readJSON(w, r, dst); err != nil {
		badRequestResponse(w, r, err)
		return false
	}
	if err := dst.Validate(); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return false
	}
	return true
}
