// Package pipeline orchestrates highlight runs as a sequence of steps:
// load the document, inject the highlight chrome, run the engine,
// persist the run, and render the rewritten HTML. A batch processor
// runs many claims concurrently, each through its own pipeline.
package pipeline
