// Package harvest implements the fetch-and-extract pipeline that turns the
// FIX reference site into one ordered document: index discovery, the detail
// extractors, the bounded-parallel orchestrator, and the assembler.
package harvest
