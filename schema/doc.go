// Package schema describes the shape of a configuration type independently
// of any output language.
//
// A Generator collects named schemas (one per struct type) and hands them,
// deduplicated and in registration order, to a Renderer that emits JSON
// Schema, TypeScript, templates or any other artifact.
package schema
