// Package version records build metadata stamped by the linker.
package version

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"
	// Commit is the short git SHA of the build.
	Commit = ""
	// Date is the build timestamp.
	Date = ""
)

// String formats the version with whatever build metadata is present.
func String() string {
	s := Version
	if Commit != "" {
		s += " (" + Commit + ")"
	}
	if Date != "" {
		s += " built " + Date
	}
	return s
}
