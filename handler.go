package kernel

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id assigned by ServeHTTP.
const RequestIDHeader = "X-Request-ID"

// ServeHTTP makes the Dispatcher an http.Handler. It executes the request and
// writes the response; a dispatch error becomes a plain-text error response:
// 404 for a *RoutingError and 500 for everything else.
//
// A request id is taken from the X-Request-ID header or generated, echoed on
// the response and attached to the log entries for the request.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, requestID)

	log := d.logger.With(
		zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	resp, err := d.Execute(r.Context(), r)
	if err != nil {
		status := StatusCode(err)
		if status >= http.StatusInternalServerError {
			log.Error("dispatch failed", zap.Error(err))
		} else {
			log.Info("dispatch rejected", zap.Int("status", status), zap.Error(err))
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	if err := WriteResponse(w, resp); err != nil {
		log.Error("write response", zap.Error(err))
		return
	}

	log.Info("request completed",
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", time.Since(start)),
	)
}

// StatusCode maps a dispatch error to the HTTP status the host answers with.
func StatusCode(err error) int {
	var rerr *RoutingError
	if errors.As(err, &rerr) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// WriteResponse writes resp's headers, status and body to w.
func WriteResponse(w http.ResponseWriter, resp Response) error {
	body, err := resp.Body()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}

	for key, values := range resp.Header() {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(resp.StatusCode())

	if len(body) > 0 {
		if _, err := w.Write(body); err != nil {
			return err
		}
	}
	return nil
}
