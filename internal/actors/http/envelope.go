package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	grpcactor "github.com/rbroggi/wasteroute/internal/actors/grpc"
	"github.com/rbroggi/wasteroute/internal/core/model"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
)

// envelope is the shape of every response body.
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errorCodes = map[codes.Code]string{
	codes.NotFound:           "NOT_FOUND",
	codes.InvalidArgument:    "VALIDATION_ERROR",
	codes.FailedPrecondition: "UNPROCESSABLE",
	codes.AlreadyExists:      "CONFLICT",
	codes.Aborted:            "INVALID_TRANSITION",
	codes.Unauthenticated:    "UNAUTHORIZED",
	codes.PermissionDenied:   "FORBIDDEN",
	codes.Internal:           "INTERNAL_ERROR",
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		log.WithError(err).Error("error encoding response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	st := grpcactor.Status(err)
	status := runtime.HTTPStatusFromCode(st.Code())
	if st.Code() == codes.Internal {
		log.WithError(err).WithField("method", r.Method).WithField("path", r.URL.Path).Error("error serving request")
	}
	code, ok := errorCodes[st.Code()]
	if !ok {
		code = "INTERNAL_ERROR"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := envelope{Error: &errorBody{Code: code, Message: st.Message()}}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("error encoding error response")
	}
}

// decode reads the JSON body into dst and validates it.
func (s *Server) decode(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", model.ErrInvalidArgument, err)
	}
	if err := s.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%w: field %s failed on the %q rule", model.ErrInvalidArgument, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", model.ErrInvalidArgument, err)
	}
	return nil
}

// parseDay reads a YYYY-MM-DD calendar day in the server location. Empty values give the zero time.
func (s *Server) parseDay(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	day, err := time.ParseInLocation(time.DateOnly, value, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", model.ErrInvalidArgument, value)
	}
	return day, nil
}

func parseUint32(value, name string) (uint32, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", model.ErrInvalidArgument, name)
	}
	return uint32(n), nil
}

// pagination reads the limit and offset query parameters.
func pagination(r *http.Request) (limit, offset uint32, err error) {
	q := r.URL.Query()
	if limit, err = parseUint32(q.Get("limit"), "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = parseUint32(q.Get("offset"), "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}
