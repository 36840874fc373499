package resolver

import "regexp"

// bareIDPattern is the canonical 11-character video identifier.
var bareIDPattern = regexp.MustCompile(`^[\w-]{11}$`)

// linkPattern matches the recognized video-link shapes: watch URLs,
// short links, embed and /v/ paths, with or without scheme and www/m
// prefixes.
var linkPattern = regexp.MustCompile(
	`^(?:(?:https?:)?//)?(?:(?:www|m)\.)?(?:youtube\.com|youtu\.be)/(?:(?:watch\?v=)|(?:embed/)|(?:v/)|(?:shorts/))?([\w-]{11})(?:[?&#/]\S*)?$`,
)

// ParseVideoID extracts the canonical video identifier from raw input,
// which may be a bare ID or any recognized video-link shape. The second
// return value reports whether the input was recognized at all.
func ParseVideoID(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}

	if bareIDPattern.MatchString(raw) {
		return raw, true
	}

	if m := linkPattern.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}

	return "", false
}

// WatchURL returns the canonical watch URL for a video identifier.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
