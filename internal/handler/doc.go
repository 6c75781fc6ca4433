// Package handler implements the HTTP API of topoview.
//
// Routes are mounted on a chi router by NewRouter. Views are addressed by
// name under /api/views/{name}; vertices by their "kind:id" key and edges by
// their edge key. Editing routes need the view to be open.
//
// Errors are returned as JSON {error, details} with a status derived from
// the underlying sentinel error. The stored document of a view is served
// with its blake3 digest as ETag.
//
// /events streams service events over SSE and /metrics exposes the
// Prometheus registry.
package handler
