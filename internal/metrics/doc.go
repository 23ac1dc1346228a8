// Package metrics defines the Prometheus instruments for the identity
// engine: login outcomes, credential rotation and replay detections,
// session lifecycle, rate-limit rejections, and backend health.
//
// Instruments register against a caller-supplied Registerer so engines
// in tests do not collide on the global registry.
package metrics
