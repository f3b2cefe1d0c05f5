// Package highlight implements the in-page text matching and marking
// engine. Given a claim or threat excerpt and a verdict label, it
// locates the first literal occurrence of the best search candidate in
// the document's visible text, wraps every occurrence inside that one
// text node with marker elements, and manages the session lifecycle:
// clearing previous markers, revealing the clear affordance, scheduling
// the scroll-and-pulse attention effects, and surfacing a transient
// notification when nothing matches.
//
// The engine owns the only mutable state in the system: the per-document
// session (active markers and the marker id counter). Both are
// encapsulated behind Highlight and Clear; there is no other way to
// touch them.
//
// All failure paths are soft. A claim that yields no candidates or
// matches nothing produces a notification, never an error: the engine's
// contract is that nothing it does can take the host document down.
package highlight
