// Package platform classifies video URLs by the provider that hosts them.
package platform

import (
	"net/url"
	"regexp"
	"strings"
)

// Platform is a supported video provider, or Unsupported.
type Platform int

const (
	Unsupported Platform = iota
	YouTube
	TikTok
	Facebook
	Instagram
)

var names = map[Platform]string{
	YouTube:   "youtube",
	TikTok:    "tiktok",
	Facebook:  "facebook",
	Instagram: "instagram",
}

// String returns the lower-case token used in requests and history rows.
func (p Platform) String() string {
	if name, ok := names[p]; ok {
		return name
	}
	return "unsupported"
}

// ParsePlatform maps a request token such as "youtube" to a Platform.
func ParsePlatform(token string) (Platform, bool) {
	for p, name := range names {
		if name == token {
			return p, true
		}
	}
	return Unsupported, false
}

// hostRule matches a registrable domain and any of its subdomains.
type hostRule struct {
	domain   string
	platform Platform
}

var hostRules = []hostRule{
	{"youtube.com", YouTube},
	{"youtube-nocookie.com", YouTube},
	{"youtu.be", YouTube},
	{"tiktok.com", TikTok},
	{"facebook.com", Facebook},
	{"fb.watch", Facebook},
	{"instagram.com", Instagram},
	{"instagr.am", Instagram},
}

// youtubePaths are the path prefixes that address a single video.
var youtubePaths = []string{"/watch", "/shorts/", "/embed/", "/live/", "/v/", "/e/"}

var youtubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// Classify inspects only the scheme, host and (for YouTube) path of rawURL.
// A provider name elsewhere in the URL, e.g. in a query parameter, never
// matches.
func Classify(rawURL string) Platform {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return Unsupported
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return Unsupported
	}

	for _, rule := range hostRules {
		if host != rule.domain && !strings.HasSuffix(host, "."+rule.domain) {
			continue
		}
		if rule.platform == YouTube && !isYouTubeVideoPath(host, u.Path) {
			return Unsupported
		}
		return rule.platform
	}
	return Unsupported
}

func isYouTubeVideoPath(host, path string) bool {
	if host == "youtu.be" {
		return len(strings.Trim(path, "/")) > 0
	}
	for _, prefix := range youtubePaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// YouTubeVideoID extracts the 11 character video id from a YouTube video URL.
func YouTubeVideoID(rawURL string) (string, bool) {
	if Classify(rawURL) != YouTube {
		return "", false
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}

	var id string
	switch {
	case strings.EqualFold(u.Hostname(), "youtu.be"):
		id = strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)[0]
	case strings.HasPrefix(u.Path, "/watch"):
		id = u.Query().Get("v")
	default:
		// /shorts/<id>, /embed/<id>, ...
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) >= 2 {
			id = parts[1]
		}
	}

	if !youtubeIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}
