// Package dom wraps a parsed HTML document and provides the narrow tree
// operations the highlight engine needs: a snapshot of eligible text
// nodes, in-place replacement of a single text node with a mixed
// text-and-marker fragment, unwrapping markers back to plain text, and
// management of the injected UI chrome (clear button, stylesheet, toast
// notifications, scroll script).
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles malformed HTML common on the web
//  2. Provides a proper DOM-like structure with in-place mutation
//  3. Its renderer round-trips documents faithfully
//
// The package deliberately mutates the live tree the same way the engine
// contract demands: eligible text nodes are collected into a snapshot
// before any rewrite, and only one node is rewritten per highlight call,
// so no traversal ever iterates a collection it is mutating.
package dom
