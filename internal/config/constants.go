// Package config holds process-wide constants and the compiler's
// build configuration.
package config

// Version is the current compiler version.
var Version = "0.1.0"

const SourceFileExt = ".sc"

// SourceFileExtensions are the recognized source file extensions.
var SourceFileExtensions = []string{".sc", ".scl"}

// IsTestMode normalizes non-deterministic output (none currently exists
// in this compiler, but the flag is kept for parity with diagnostics
// formatting that may want stable output in golden tests).
var IsTestMode = false

// DefaultTargetVersion is the #pragma version emitted for programs that
// do not declare one explicitly via BuildConfig.
const DefaultTargetVersion = 8

// OnCompletion constants, used by the router when asserting a route's
// expected OnCompletion value. They are not resolvable as names inside
// expressions.
const (
	NoOp               = 0
	OptIn              = 1
	CloseOut           = 2
	ClearState         = 3
	UpdateApplication  = 4
	DeleteApplication  = 5
	CreateApplication  = -1 // sentinel: asserted via ApplicationID == 0, not OnCompletion
)

// OnCompletionValues maps the surface-language names usable in
// @public(OnCompletion=...) to their integer encoding.
var OnCompletionValues = map[string]int{
	"NoOp":              NoOp,
	"OptIn":             OptIn,
	"CloseOut":          CloseOut,
	"ClearState":        ClearState,
	"UpdateApplication": UpdateApplication,
	"DeleteApplication": DeleteApplication,
}

// TxnTypeValues maps inner-transaction TypeEnum names to their integer
// encoding. The inner_txn lowering does not consult it: field setter
// values are written as the expressions given.
var TxnTypeValues = map[string]int{
	"Pay":   1,
	"Acfg":  3,
	"Axfer": 4,
	"Afrz":  5,
	"Appl":  6,
}

// ArgReturnTag is the four-byte prefix the router prepends to
// log()'d method return values.
const ArgReturnTag = "0x151f7c75"

// TrimSourceExt removes any recognized source extension from a filename.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt returns true if the path ends with any recognized source
// extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}
