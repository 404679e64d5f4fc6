package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/tuanvumaihuynh/sweetshop/internal/apperr"
)

const maxBodyBytes = 1 << 20 // 1 MB

var numberType = reflect.TypeFor[json.Number]()

// decodeJSON reads a single JSON value from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	err := dec.Decode(dst)
	if err == nil {
		return nil
	}

	var (
		typeErr *json.UnmarshalTypeError
		maxErr  *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return errBodyRequired.WrapParent(err)
	case errors.As(err, &maxErr):
		return errBodyTooLarge.WrapParent(err)
	case errors.As(err, &typeErr) && typeErr.Field != "":
		msg := fmt.Sprintf("must be a %s", jsonKind(typeErr.Type))
		return apperr.NewValidationErr(typeErr.Field, msg).WrapParent(err)
	default:
		return errBodyMalformed.WrapParent(err)
	}
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "valid value"
	}
	if t == numberType {
		return "number"
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	default:
		return "valid value"
	}
}

// sweetID binds the {id} path parameter. An id that is not a UUID cannot name
// any sweet, so it resolves to not found.
func sweetID(r *http.Request) (uuid.UUID, error) {
	var id uuid.UUID

	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return uuid.Nil, apperr.SweetNotFoundErr.WrapParent(err)
	}

	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck
	json.NewEncoder(w).Encode(v)
}
