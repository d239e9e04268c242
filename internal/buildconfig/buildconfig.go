package buildconfig

// Set at build time via -ldflags "-X ...".
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func Version() string { return version }

func Commit() string { return commit }

// VersionInfo bundles the build identity for the stats endpoint.
func VersionInfo() map[string]string {
	return map[string]string{
		"version":    version,
		"commit":     commit,
		"build_date": buildDate,
	}
}
