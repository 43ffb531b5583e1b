package build

// Set by ldflags at release time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

const appName = "pinned-repos"

// FullVersion returns the version string with commit hash appended.
// Format: "Version+Commit" (e.g., "1.0.0+abc123")
func FullVersion() string {
	return Version + "+" + Commit
}

// UserAgent is the default User-Agent sent upstream, e.g. "pinned-repos/1.0.0".
func UserAgent() string {
	return appName + "/" + Version
}
