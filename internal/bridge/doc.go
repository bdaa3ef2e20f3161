// Package bridge runs one inference call per RunModel invocation and reports
// its outcome exactly once through a Completion. It is structured into small
// files by concern:
//
//   - bridge.go: Bridge type, RunModel/Submit/Run entry points and the
//     per-call pipeline (load, session, validate, run, release).
//   - config.go: Config and package defaults; New applies defaults.
//   - completion.go: the Completion contract, Promise, and the once-guard.
//   - request.go: immutable Request construction and validation.
//   - errors.go: failure taxonomy (Kind, Failure) and IsX helpers.
//   - admission.go: optional bound on concurrently executing calls.
//   - events.go, eventpub_memory.go: lifecycle events.
//   - metrics.go, status.go: Prometheus collectors and status reporting.
//
// Each call owns its model handle and engine session exclusively; nothing
// is cached or shared between calls.
package bridge
