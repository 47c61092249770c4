// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"

	"quillpress/internal/logging"
	"quillpress/internal/metrics"
)

// internalError is the only body a client sees for a server fault.
const internalError = "Something went wrong. Please try again later."

// Recoverer turns a handler panic into a JSON 500. When the handler had
// already started its response the status cannot change, so the panic is
// only logged and counted. http.ErrAbortHandler keeps propagating.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			metrics.HandlerPanics.Inc()
			logging.From(r.Context()).Error("handler panic",
				"panic", fmt.Sprint(rec),
				"request_id", chimw.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"response_started", ww.Status() != 0,
				"stack", string(debug.Stack()),
			)
			if ww.Status() == 0 {
				writeJSONError(ww, http.StatusInternalServerError, internalError)
			}
		}()

		next.ServeHTTP(ww, r)
	})
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
