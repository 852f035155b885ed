package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/observability"
	"github.com/matzehuels/flowlens/pkg/rows"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "error", err)
	}
}

// writeError responds with the coded error body. Uncoded errors are
// reported as INTERNAL_ERROR without their text.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if code == "" {
		code = errors.ErrCodeInternal
		msg = "internal error"
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}

// decodeJSON decodes the body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

// readRows decodes an uploaded dataset. The Content-Type selects the row
// format; anything else is sniffed.
func (s *Server) readRows(w http.ResponseWriter, r *http.Request) (rows.Dataset, error) {
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxUpload)
	ds, err := rows.Read(body, rowFormat(r.Header.Get("Content-Type")))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return rows.Dataset{}, errors.New(errors.ErrCodeInvalidInput,
				"upload exceeds %d bytes", tooLarge.Limit)
		}
		return rows.Dataset{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "cannot parse rows")
	}
	_, _ = io.Copy(io.Discard, body)
	return ds, nil
}

func rowFormat(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mt {
	case "text/csv":
		return rows.FormatCSV
	case "application/json":
		return rows.FormatJSON
	}
	return ""
}

// statusRecorder captures the status written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// observe reports every request to the HTTP hooks and the debug log.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		start := time.Now()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, rec.status, elapsed)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "duration", elapsed)
	})
}
