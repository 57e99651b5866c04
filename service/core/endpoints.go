package core

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"tsa/service/calculators"
	sm "tsa/service/models"
)

const (
	ContentTypeArrowStream = "application/vnd.apache.arrow.stream"

	formatArrow = "arrow"
)

func GetHttpServer(sc *ServiceContext) *http.Server {
	return &http.Server{
		Addr:           sc.Settings.HttpAddr,
		Handler:        NewRouter(sc),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   2 * time.Minute, // full history downloads are rate limited
		MaxHeaderBytes: 1 << 20,
		BaseContext:    func(_ net.Listener) context.Context { return sc.Context },
	}
}

func NewRouter(sc *ServiceContext) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(sc.Logger))

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) { handlePing(w, r, sc) })
		r.Post("/returns", func(w http.ResponseWriter, r *http.Request) { handleReturns(w, r, sc) })
		r.Post("/metrics", func(w http.ResponseWriter, r *http.Request) { handleMetrics(w, r, sc) })
		r.Get("/symbols", func(w http.ResponseWriter, r *http.Request) { handleSymbols(w, r, sc) })
		r.Post("/symbols/{symbol}/sync", func(w http.ResponseWriter, r *http.Request) { handleSync(w, r, sc) })
	})

	return r
}

func handlePing(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	if sc.PostgresConnection != nil {
		if err := sc.PostgresConnection.Ping(r.Context()); err != nil {
			writeError(w, r, sc.Logger, err)
			return
		}
	}
	render.JSON(w, r, map[string]string{"message": "pong"})
}

func handleReturns(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	var req sm.ReturnsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, sc.Logger, &calculators.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	res, runId, err := sc.RunDailyReturns(r.Context(), req)
	if err != nil {
		writeError(w, r, sc.Logger, err)
		return
	}

	if r.URL.Query().Get("format") == formatArrow {
		w.Header().Set("Content-Type", ContentTypeArrowStream)
		if err := res.WriteIPC(w, memory.DefaultAllocator); err != nil {
			// headers are gone, all we can do is log
			sc.Logger.Error().Err(err).Msg("error writing arrow stream")
		}
		return
	}

	rows, err := returnRows(res)
	if err != nil {
		writeError(w, r, sc.Logger, err)
		return
	}

	render.JSON(w, r, sm.GetServiceResponseOk(&sm.ReturnsResponse{RunId: runId, Rows: rows}))
}

func handleMetrics(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	var req sm.MetricsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, sc.Logger, &calculators.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	res, err := sc.RunMetrics(r.Context(), req)
	if err != nil {
		writeError(w, r, sc.Logger, err)
		return
	}

	render.JSON(w, r, sm.GetServiceResponseOk(res))
}

func handleSymbols(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	res, err := sc.ListSymbols(r.Context())
	if err != nil {
		writeError(w, r, sc.Logger, err)
		return
	}

	render.JSON(w, r, sm.GetServiceResponseOk(&res))
}

func handleSync(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	res, err := sc.SyncSymbolTimeSeriesData(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		writeError(w, r, sc.Logger, err)
		return
	}

	render.JSON(w, r, sm.GetServiceResponseOk(res))
}

func statusFor(err error) int {
	var ve *calculators.ValidationError
	var se *calculators.SchemaError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &se):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrRecentlyRefreshed):
		return http.StatusConflict
	case errors.Is(err, ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	status := statusFor(err)
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("request failed")

	render.Status(r, status)
	render.JSON(w, r, sm.GetServiceResponseError(err.Error()))
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info().
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("elapsed", time.Since(start)).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
