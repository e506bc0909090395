// Package metrics provides an observability framework for Bookbinder build metrics.
//
// # Design Philosophy
//
// This package implements the Null Object pattern to enable metrics collection
// without requiring explicit nil checks throughout the codebase. By default,
// all components use NoopRecorder which implements the Recorder interface with
// no-op methods that inline to nothing at compile time.
//
// # Architecture
//
// The metrics system has three components:
//
//  1. Recorder interface - Defines all metrics operations
//  2. NoopRecorder - Default implementation that does nothing (zero overhead)
//  3. PrometheusRecorder - Prometheus adapter, activated by metrics.enabled
//
// # Usage Pattern
//
// Components receive a Recorder through dependency injection:
//
//	engine := book.NewEngine(cfg).WithRecorder(recorder)
//
// When metrics.enabled is set in book.yaml, the preview server constructs a
// PrometheusRecorder backed by its own registry and exposes it at /metrics.
// Everything else keeps the NoopRecorder default.
package metrics
