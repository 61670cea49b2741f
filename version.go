package godeck

import "fmt"

// Version information for the GoDeck library.
const (
	VersionMajor = 1
	VersionMinor = 0
	VersionPatch = 0
)

// Version is the full version string of the GoDeck library.
var Version = fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)

// AppVersion is the version in the XX.YYYY form docProps/app.xml requires.
var AppVersion = fmt.Sprintf("%02d.%04d", VersionMajor, VersionMinor)
