package version

// Set at build time via -ldflags.
var (
	Version   = "unknown"
	GitCommit = "unknown"
	BuildTime = "unknown"
)
