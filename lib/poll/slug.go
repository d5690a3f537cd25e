// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package poll

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"
	"unicode"
)

// maxSlugTopicLength caps the slugified topic portion of a generated
// slug so directory names stay manageable for very long topics.
const maxSlugTopicLength = 50

// Slugify reduces free text to a filesystem-safe label: lowercase,
// every run of non-alphanumeric runes collapsed to a single hyphen,
// no leading or trailing hyphen. Used both for generated slugs and
// for normalizing tags before comparison.
func Slugify(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pendingHyphen := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		} else {
			pendingHyphen = true
		}
	}
	return b.String()
}

// NewSlug generates a poll slug: the creation date, a random token,
// and the slugified topic truncated to a fixed length, joined with
// hyphens. The date keeps the tree browsable in chronological order;
// the token guarantees uniqueness even for identical topics created
// in the same instant.
func NewSlug(now time.Time, topic string) string {
	parts := []string{now.UTC().Format("2006-01-02"), newToken()}
	if s := truncateSlug(Slugify(topic)); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "-")
}

// newToken returns "t" followed by 120 random bits in unpadded
// URL-safe base64 (20 characters). The leading letter keeps tokens
// from ever parsing as dates.
func newToken() string {
	raw := make([]byte, 15)
	if _, err := rand.Read(raw); err != nil {
		// crypto/rand never fails on supported platforms.
		panic("poll: reading random bytes: " + err.Error())
	}
	return "t" + base64.RawURLEncoding.EncodeToString(raw)
}

// truncateSlug cuts a slugified topic at the length cap without
// leaving a dangling hyphen.
func truncateSlug(s string) string {
	if len(s) > maxSlugTopicLength {
		s = s[:maxSlugTopicLength]
	}
	return strings.TrimRight(s, "-")
}
