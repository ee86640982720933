package ads

import (
	"fmt"
	"strings"
)

// Platform is the closed set of ad surfaces this service can connect.
type Platform string

const (
	PlatformFacebook  Platform = "Facebook"
	PlatformInstagram Platform = "Instagram"
)

var supportedPlatforms = []Platform{PlatformFacebook, PlatformInstagram}

func SupportedPlatforms() []Platform {
	return append([]Platform(nil), supportedPlatforms...)
}

// ParsePlatform accepts the canonical name in any case.
func ParsePlatform(raw string) (Platform, error) {
	raw = strings.TrimSpace(raw)
	for _, p := range supportedPlatforms {
		if strings.EqualFold(raw, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, raw)
}

func (p Platform) Valid() bool {
	_, err := ParsePlatform(string(p))
	return err == nil
}

// Slug is the lower-case form used in callback paths.
func (p Platform) Slug() string { return strings.ToLower(string(p)) }
