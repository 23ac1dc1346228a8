// Package audit implements async event dispatching for security-relevant
// operations: login attempts, credential rotation, replay detections,
// lockouts, session terminations.
//
// # Components
//
//   - [Event] — structured audit record with timestamp, action, user,
//     session, IP, and free-form metadata.
//   - [Sink] — interface for event consumers (channel, JSON writer,
//     slog, no-op).
//   - [Dispatcher] — buffered async relay with drop-if-full semantics
//     and a drop counter, so a slow sink never stalls a login.
//
// The package owns buffering and sink delivery only. Deciding which
// events to emit belongs to the engine.
package audit
