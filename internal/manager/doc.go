// Package manager coordinates inference calls for the outer surfaces (HTTP,
// NATS, CLI). It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults.
//   - errors.go: error types and helpers (IsTooBusy).
//   - models.go: model directory scanning and model path resolution.
//   - admission.go: bounded queue admission with a wait timeout.
//   - run.go: Run, the entry point used by the HTTP and NATS layers.
//   - status.go: Status and Ready.
//
// The Manager never executes models itself; every call goes through
// bridge.Bridge, which owns load, session and release ordering.
package manager
