// Package main provides the entry point for the claritymark CLI.
//
// Claritymark locates claim text inside HTML documents and rewrites
// them with highlight markers, styled by fact-check verdict.
//
// Usage:
//
//	claritymark mark page.html --claim "..." --verdict contradicted
//	claritymark serve
//
// See --help for all available options.
package main

// main is the entry point for claritymark.
func main() {
	Execute()
}
