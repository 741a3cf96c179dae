// Package platform maps video links to the social platform they come from.
package platform

import (
	"regexp"
	"strings"
)

// Label identifies a supported source site.
type Label string

const (
	TikTok    Label = "tiktok"
	Instagram Label = "instagram"
	YouTube   Label = "youtube"
	Twitter   Label = "twitter"
	Facebook  Label = "facebook"
)

func (l Label) String() string {
	return string(l)
}

type rule struct {
	label    Label
	patterns []*regexp.Regexp
}

// Order matters: the first label with a matching pattern wins.
var rules = []rule{
	{TikTok, compile(`tiktok\.com`, `vm\.tiktok\.com`)},
	{Instagram, compile(`instagram\.com/reel`, `instagr\.am`)},
	{YouTube, compile(`youtube\.com/shorts`, `youtu\.be`)},
	{Twitter, compile(`twitter\.com`, `x\.com`)},
	{Facebook, compile(`facebook\.com`, `fb\.watch`)},
}

func compile(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		res = append(res, regexp.MustCompile(p))
	}
	return res
}

// Detect returns the platform label for url, or false when no platform matches.
func Detect(url string) (Label, bool) {
	lower := strings.ToLower(url)
	for _, r := range rules {
		for _, re := range r.patterns {
			if re.MatchString(lower) {
				return r.label, true
			}
		}
	}
	return "", false
}

// All returns the supported labels in match order.
func All() []Label {
	labels := make([]Label, 0, len(rules))
	for _, r := range rules {
		labels = append(labels, r.label)
	}
	return labels
}

// IsURL reports whether text starts with an http or https scheme.
func IsURL(text string) bool {
	lower := strings.ToLower(text)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
