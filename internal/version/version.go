package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the installer version (set via -ldflags).
var Current = "dev"

// Version is a parsed release tag
type Version struct {
	Major int
	Minor int
	Patch int
}

// String returns the version in semantic format
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseTag extracts version components from a git tag (e.g., "v1.2.3" or "2.1.14")
func ParseTag(tag string) (Version, error) {
	tagVersion := strings.TrimPrefix(strings.TrimSpace(tag), "v")
	parts := strings.Split(tagVersion, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid tag format: %s (expected X.Y.Z)", tag)
	}

	var v Version
	var err error
	v.Major, err = strconv.Atoi(parts[0])
	if err != nil {
		return Version{}, fmt.Errorf("invalid major version in tag %s: %w", tag, err)
	}
	v.Minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return Version{}, fmt.Errorf("invalid minor version in tag %s: %w", tag, err)
	}
	v.Patch, err = strconv.Atoi(parts[2])
	if err != nil {
		return Version{}, fmt.Errorf("invalid patch version in tag %s: %w", tag, err)
	}

	return v, nil
}

// Display returns a tag in a form suitable for messages: parsed tags are
// printed as X.Y.Z, anything else verbatim.
func Display(tag string) string {
	if v, err := ParseTag(tag); err == nil {
		return v.String()
	}
	return tag
}

// UserAgent is sent with every HTTP request
func UserAgent() string {
	return "lwjgl3ify-installer/" + Current
}
