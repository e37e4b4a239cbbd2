package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gobooks/internal/adapter/http/dto"
	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/translator"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// decodeJSON reads a request body into dst and checks its struct tags.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &malformedError{err: err}
	}
	return dto.Validate(dst)
}

// malformedError marks a body that is not valid JSON for its target.
type malformedError struct {
	err error
}

func (e *malformedError) Error() string { return "malformed request body: " + e.err.Error() }
func (e *malformedError) Unwrap() error { return e.err }

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	var (
		malformed *malformedError
		reqErr    *dto.RequestError
	)
	switch {
	case errors.As(err, &malformed):
		return http.StatusBadRequest
	case errors.As(err, &reqErr):
		return http.StatusUnprocessableEntity
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateAccountCode), errors.Is(err, domain.ErrDuplicateSource):
		return http.StatusConflict
	case domain.IsValidation(err), errors.Is(err, translator.ErrInvalidEvent):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvariantViolation):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError writes err with the status mapDomainError picks. Server
// errors are logged and hidden from the client.
func writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := mapDomainError(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg(message)
		writeError(w, status, message, "internal error")
		return
	}

	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: err.Error(),
		Details: errorDetails(err),
	})
}

// errorDetails flattens validation problems into one detail per problem.
func errorDetails(err error) []dto.ErrorDetail {
	var reqErr *dto.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Details
	}

	var entryErr *domain.EntryValidationError
	if !errors.As(err, &entryErr) {
		return nil
	}

	details := make([]dto.ErrorDetail, 0, len(entryErr.Problems))
	for _, p := range entryErr.Problems {
		details = append(details, problemDetail(p))
	}
	return details
}

func problemDetail(p error) dto.ErrorDetail {
	var (
		unbalanced *domain.UnbalancedError
		accountErr *domain.AccountError
		lineErr    *domain.LineError
	)
	switch {
	case errors.As(p, &unbalanced):
		return dto.ErrorDetail{
			Debit:  dto.Amount(unbalanced.Debit),
			Credit: dto.Amount(unbalanced.Credit),
			Reason: domain.ErrUnbalanced.Error(),
		}
	case errors.As(p, &accountErr):
		return dto.ErrorDetail{Account: accountErr.Code, Reason: accountErr.Err.Error()}
	case errors.As(p, &lineErr):
		line := lineErr.Index + 1
		d := dto.ErrorDetail{
			Line:    &line,
			Account: lineErr.AccountCode,
			Reason:  lineErr.Reason,
			Debit:   dto.Amount(lineErr.Debit),
			Credit:  dto.Amount(lineErr.Credit),
		}
		switch {
		case lineErr.Debit.IsZero() && !lineErr.Credit.IsZero():
			d.Side = string(domain.SideCredit)
		case lineErr.Credit.IsZero() && !lineErr.Debit.IsZero():
			d.Side = string(domain.SideDebit)
		}
		return d
	default:
		return dto.ErrorDetail{Reason: p.Error()}
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseDateQuery parses an optional YYYY-MM-DD query parameter.
func parseDateQuery(r *http.Request, key string) (time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dto.DateLayout, val)
	if err != nil {
		return time.Time{}, &dto.RequestError{Details: []dto.ErrorDetail{{
			Field:  key,
			Reason: fmt.Sprintf("must be a YYYY-MM-DD date, got %q", val),
		}}}
	}
	return t, nil
}

// parseBoolQuery parses an optional boolean query parameter.
func parseBoolQuery(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

// wantsCSV reports whether the client asked for CSV output.
func wantsCSV(r *http.Request) bool {
	return r.URL.Query().Get("format") == "csv" || r.Header.Get("Accept") == "text/csv"
}
