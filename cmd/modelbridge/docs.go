package main

// General API documentation for swaggo. Generate with `swag init -g cmd/modelbridge/docs.go`.
//
// @title           modelbridge API
// @version         1.0
// @description     HTTP API for running memory-mapped model files through an inference engine.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
