package buildinfo

// Version metadata is overridden at build time via ldflags:
//
//	-ldflags "-X scriptedge/buildinfo.Version=1.2.0 -X scriptedge/buildinfo.Commit=$(git rev-parse --short HEAD)"
var (
	Version = "0.0.0-DEBUG"
	Commit  = "unknown"
	Date    = "unknown"
)

// UserAgent is sent on every upstream request.
func UserAgent() string {
	return "scriptedge/" + Version
}
