// Package errgen provides the directive surface for error-type generation.
//
// Errgen reads annotated Go files and generates the error-handling
// boilerplate they describe: a full error type with a message field, a
// nested-context stack, optional custom fields and an optional wrapped
// source-error union, plus rewritten function bodies that convert and
// contextualize errors as they propagate.
//
// Annotated files carry the errgen build constraint so they never take part
// in a normal build:
//
//	//go:build errgen
//
// An error type is declared with the errgen:error directive. Fields may be
// marked as a wrapped source error or given a constructor default:
//
//	//errgen:error
//	type ManifestError struct {
//		//errgen:default 400
//		code int
//		//errgen:source
//		ioErr *os.PathError
//	}
//
// The generator expands the declaration into the full type: a msg field, an
// innerMsgs history, the declared fields, and a ManifestErrorSource union
// with one variant per source field plus a none variant. It also emits
// NewManifestError, Msg, MakeInner, Source, Error and String.
//
// A custom format may replace the default "...because..." template:
//
//	//errgen:error format="{code}: {msg}"
//
// Function bodies are rewritten by the errgen:context and errgen:convert
// directives. Fallible calls are marked with Try or Check:
//
//	//errgen:context "failed to load the manifest"
//	func LoadManifest(path string) (*Manifest, *ManifestError) {
//		data := errgen.Try(os.ReadFile(path))
//		m := errgen.Try(parseManifest(data))
//		return finalize(m)
//	}
//
// Each marked call becomes an explicit check: on failure the carried error
// is converted into the function's error type, the context message is
// pushed, and the function returns; on success the value passes through.
// The trailing return receives the same treatment without disturbing the
// success path.
//
// Conversion between error types is supplied by the surrounding program: a
// package-level function marked errgen:from with signature func(error) *T
// is the conversion contract into *T. It must map *T itself through
// unchanged. A function that needs a conversion for which no errgen:from
// provider is visible fails generation outright; the failure is never
// deferred to runtime.
//
// Run the generator to produce a sibling _errgen.go file per annotated
// file:
//
//	go run github.com/frherrer/errgen/cmd/errgen generate
package errgen

// Try marks a fallible call inside an annotated function. The generator
// replaces the call with an explicit error check; the marker itself must
// never execute.
func Try[T any](v T, err error) T {
	panic("errgen.Try survived generation: run errgen over this package")
}

// Check is Try for calls that return only an error.
func Check(err error) {
	panic("errgen.Check survived generation: run errgen over this package")
}
