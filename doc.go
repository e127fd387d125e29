// Package lectern is the composition root of a file-backed library of
// presentation documents: slides, songs and bible passages.
//
// Every document lives in its own self-describing file (JSON by default,
// YAML on request) whose name is derived from the document name. The
// library keeps an in-memory index keyed by a stable UUID, so renaming a
// document renames its file without changing its identity.
//
// Features:
//
//   - **Atomic writes**: files are replaced via temp file and rename.
//   - **Safe names**: names that cannot be file names fall back to an ID-based name.
//   - **Bundles**: documents travel as zip archives or single files.
//   - **Watching**: external edits surface as events.
//   - **Typed Retrieval**: `NewTypedService[T]` stores structured content.
//
// Usage:
//
//	svc, err := lectern.New("./slides",
//		lectern.WithKind(lectern.KindSlide),
//		lectern.WithLogger(logger),
//	)
//
//	doc, err := svc.Create(ctx, "Welcome", "Good morning!", "intro")
package lectern
