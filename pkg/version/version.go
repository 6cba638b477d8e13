package version

// Version is overridden at build time via -ldflags.
var Version = "v0.1.0"

// Get returns the current version of the application
func Get() string {
	return Version
}
