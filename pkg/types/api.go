package types

// RunRequest is the payload of POST /run and of NATS run requests.
type RunRequest struct {
	// Path of the model file to load for this call.
	// example: /home/user/models/imu-reps.dmod
	ModelPath string `json:"model_path" example:"/home/user/models/imu-reps.dmod"`
	// Input tensor. When Shape is omitted it defaults to [1, len(values)].
	Input Tensor `json:"input"`
}

// RunResponse is returned on success.
type RunResponse struct {
	// Output tensor produced by the engine.
	Output Tensor `json:"output"`
	// Wall time of the call in milliseconds.
	// example: 3
	DurationMS int64 `json:"duration_ms" example:"3"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of available models.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: model not found: /models/x.dmod
	Error string `json:"error" example:"model not found: /models/x.dmod"`
	// Failure kind (not_found, io_failure, empty, session, shape_mismatch, engine_failure).
	// example: not_found
	Kind string `json:"kind,omitempty" example:"not_found"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Engine used to build sessions.
	// example: dense
	Engine string `json:"engine" example:"dense"`
	// Whether the loader memory-maps model files.
	// example: true
	Mmap bool `json:"mmap" example:"true"`
	// Calls currently executing on worker goroutines.
	// example: 1
	Inflight int64 `json:"inflight" example:"1"`
	// Calls holding a manager queue slot.
	// example: 1
	QueueDepth int `json:"queue_depth" example:"1"`
	// Calls resolved with an output.
	// example: 40
	Resolved uint64 `json:"resolved_total" example:"40"`
	// Calls rejected with a failure.
	// example: 2
	Rejected uint64 `json:"rejected_total" example:"2"`
	// Model handles acquired by the loader.
	// example: 42
	HandlesAcquired int64 `json:"handles_acquired" example:"42"`
	// Model handles released by the loader.
	// example: 42
	HandlesReleased int64 `json:"handles_released" example:"42"`
	// Handles acquired and not yet released.
	// example: 0
	HandlesOpen int64 `json:"handles_open" example:"0"`
	// Uptime of the bridge in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
