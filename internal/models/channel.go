package models

import "regexp"

// Channel IDs are caller-supplied and created on first use. The pattern
// also keeps file-backed channel logs from escaping their directory.
var channelIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidChannelID reports whether id is an acceptable channel identifier.
func ValidChannelID(id string) bool {
	return channelIDRegex.MatchString(id)
}
