package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"modelbridge/internal/manager"
	"modelbridge/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.Model
	Status() types.StatusResponse
	Run(ctx context.Context, req types.RunRequest) (types.RunResponse, error)
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(corsOptions()))
	}

	r.Get("/models", listModelsHandler(svc))
	r.Get("/status", statusHandler(svc))
	r.Post("/run", runHandler(svc))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

func corsOptions() cors.Options {
	methods := corsAllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	headers := corsAllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Content-Type"}
	}
	return cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: methods,
		AllowedHeaders: headers,
		MaxAge:         300,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}

// listModelsHandler godoc
// @Summary      List models
// @Description  Model files found in the configured models directory.
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Router       /models [get]
func listModelsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.ModelsResponse{Models: svc.ListModels()})
	}
}

// statusHandler godoc
// @Summary      Bridge status
// @Tags         status
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /status [get]
func statusHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	}
}

// runHandler godoc
// @Summary      Run a model
// @Description  Loads the model file, runs it on the input tensor and returns the output tensor.
// @Tags         run
// @Accept       json
// @Produce      json
// @Param        request  body      types.RunRequest  true  "Run request"
// @Success      200      {object}  types.RunResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      404      {object}  types.ErrorResponse
// @Failure      422      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Router       /run [post]
func runHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "", "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.RunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "", "request body too large")
				return
			}
			writeJSONError(w, http.StatusBadRequest, "", "invalid JSON body")
			return
		}

		lvl := requestLogLevel(r)
		if lvl >= LevelDebug {
			runEvent(r, lvl, false).Str("model", req.ModelPath).Ints64("shape", req.Input.Shape).
				Int("values", len(req.Input.Values)).Msg("run start")
		}
		start := time.Now()

		// Join server base context with request context so shutdown cancels the wait too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if runTimeout > 0 {
			var cancelT context.CancelFunc
			ctx, cancelT = context.WithTimeout(ctx, time.Duration(runTimeout)*time.Second)
			defer cancelT()
		}

		res, err := svc.Run(ctx, req)
		if err != nil {
			// client went away; nobody to answer
			if r.Context().Err() != nil {
				return
			}
			status, kind := manager.Classify(err)
			if errors.Is(err, context.Canceled) && serverBaseCtx.Err() != nil {
				status, kind = http.StatusServiceUnavailable, "shutdown"
			}
			if status == http.StatusTooManyRequests {
				IncrementBackpressure("queue")
			}
			writeJSONError(w, status, kind, err.Error())
			runEvent(r, lvl, true).Str("model", req.ModelPath).Int("status", status).Str("kind", kind).
				Dur("dur", time.Since(start)).Err(err).Msg("run end")
			return
		}
		writeJSON(w, http.StatusOK, res)
		runEvent(r, lvl, false).Str("model", req.ModelPath).Int("status", http.StatusOK).
			Ints64("output_shape", res.Output.Shape).Dur("dur", time.Since(start)).Msg("run end")
	}
}
