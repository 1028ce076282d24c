package rtctl

// Version is the current version of the rtctl library
const Version = "1.0.0"

// VersionInfo contains detailed version information
type VersionInfo struct {
	// Version is the semantic version
	Version string
	// Layouts lists the supported executable layouts
	Layouts []string
}

// GetVersion returns the current version information
func GetVersion() VersionInfo {
	return VersionInfo{
		Version: Version,
		Layouts: []string{LayoutSupervisor.String(), LayoutRealtime.String()},
	}
}
