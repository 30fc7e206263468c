package config

import "fmt"

var (
	// Version is set on build time with -ldflags "-X ..."
	Version = "0.1.0"
	// Commit the git commit of the build
	Commit = "dev"
)

type version struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

func NewVersion() *version {
	return &version{
		Version: Version,
		Commit:  Commit,
	}
}

func (v version) String() string {
	return fmt.Sprintf("go_vendortiles %s (%s)", v.Version, v.Commit)
}
