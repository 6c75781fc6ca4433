// Package canvas implements the topology canvas model.
//
// A Scene is a typed graph whose vertices are domain.Vertex values and whose
// edges are domain.EdgeKey values. Each vertex or edge is mapped to at most
// one widget, created lazily by the attachment Policy the first time the
// vertex is added, and placed on one of five layers painted back to front:
// frames, edges, nodes, icons, labels.
//
// # Threading
//
// A Scene is not safe for concurrent use. All mutation (adding and removing
// vertices and edges, gestures, selection) must happen on one goroutine.
// Listeners run synchronously, in registration order, before the mutating
// call returns. A listener must not mutate the scene; such calls fail with
// ErrReentrantMutation.
//
// # Selection
//
// Broadcaster republishes a single selected inventory object into a Lookup,
// the shared value that property and menu panels read.
package canvas
