package ingest

import "strings"

// ConsulateMatcher finds the consulate a message refers to from its hashtags.
type ConsulateMatcher struct {
	fragments []string
}

// NewConsulateMatcher creates a matcher for the given name fragments.
// Empty fragments are ignored.
func NewConsulateMatcher(fragments []string) *ConsulateMatcher {
	kept := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f != "" {
			kept = append(kept, f)
		}
	}

	return &ConsulateMatcher{fragments: kept}
}

// Match returns the first hashtag containing a known fragment, with its tag
// marker removed. The second value is false when no hashtag matches.
func (m *ConsulateMatcher) Match(hashtags []string) (string, bool) {
	for _, tag := range hashtags {
		if m.matches(tag) {
			return strings.Replace(tag, "#", "", 1), true
		}
	}

	return "", false
}

func (m *ConsulateMatcher) matches(tag string) bool {
	for _, fragment := range m.fragments {
		if strings.Contains(tag, fragment) {
			return true
		}
	}

	return false
}
