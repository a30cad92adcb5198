// Package version provides version metadata for the application.
package version

import "fmt"

// These variables are typically injected at build time using -ldflags
var (
	// Version holds the current version of wordpick.
	Version = "dev"
	// Commit holds the current version commit of wordpick.
	Commit = "none"
	// BuildDate holds the build date of wordpick.
	BuildDate = "unknown"
)

// Struct returns version information in a structured format.
type Struct struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
}

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("wordpick %s (commit: %s, date: %s)", Version, Commit, BuildDate)
}

// Get returns version information as a Struct.
func Get() Struct {
	return Struct{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
	}
}
