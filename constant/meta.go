// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Reelin is the canonical application identifier used for filesystem paths and CLI branding.
	Reelin = "reelin"

	// Version is the current application semantic version string.
	Version = "0.1.0"
)

// Build metadata populated at link time via -ldflags.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)

// MaxScanDepth is the upper bound for a mounted folder's recursive scan depth.
// A depth of 0 restricts discovery to files directly inside the folder.
const MaxScanDepth = 5
