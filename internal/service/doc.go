// Package service implements business logic for the topoview application.
//
// # Services
//
// ViewService owns the open canvases. A canvas.Scene is single-threaded, so
// the service runs one dispatch goroutine and funnels every scene access
// through it; callers may use the service from any goroutine. Database reads
// happen before an operation is queued, never on the dispatch goroutine.
//
// Views are opened from the store (or empty), edited through gestures,
// exported through the codec registry and saved back. Discovery results are
// stored as inventory objects that views can place.
//
// # Event System
//
// The service publishes events via EventBus for real-time updates to
// connected clients via Server-Sent Events (SSE): objects added, edges
// added and removed, selection changes, and view lifecycle.
package service
