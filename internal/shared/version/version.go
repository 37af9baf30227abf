// Package version reports the build version of the binary.
package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Version is stamped at build time with
// -ldflags "-X github.com/RobertLogos32/bto-prova/internal/shared/version.Version=1.4.0".
var Version = "dev"

// Normalize ensures version string has "v" prefix for semver compatibility.
// Examples: "1.2.3" -> "v1.2.3", "v1.2.3" -> "v1.2.3"
func Normalize(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		return ""
	}
	if !strings.HasPrefix(version, "v") {
		return "v" + version
	}
	return version
}

// String returns the canonical form of Version, or Version unchanged when
// it is not a semantic version (local builds report "dev").
func String() string {
	return canonical(Version)
}

func canonical(v string) string {
	n := Normalize(v)
	if !semver.IsValid(n) {
		return v
	}
	if b := semver.Build(n); b != "" {
		return semver.Canonical(n) + b
	}
	return semver.Canonical(n)
}
