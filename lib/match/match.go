// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package match provides the text-similarity primitives behind fuzzy
// poll resolution: tokenization, a normalized edit-distance ratio,
// and a token-aware subject score that tolerates dropped filler words
// and partial phrasing.
//
// All functions are pure and deterministic. Thresholds live with the
// callers; this package only computes scores in [0, 1].
package match

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Tokenize splits text into lowercase alphanumeric runs. Single-rune
// tokens are dropped: they are almost always noise ("a", punctuation
// survivors) and would otherwise dominate containment scores for
// short queries.
func Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			token := current.String()
			if len([]rune(token)) >= 2 {
				tokens = append(tokens, token)
			}
			current.Reset()
		}
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

// Ratio returns a similarity score in [0, 1] for two strings: one
// minus the Levenshtein distance normalized by the longer rune
// length. Identical strings score 1, disjoint strings approach 0.
// Two empty strings are identical and score 1.
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	lengthA := len([]rune(a))
	lengthB := len([]rune(b))
	longer := max(lengthA, lengthB)
	if longer == 0 {
		return 1
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longer)
}

// SubjectScore scores how well a free-text query matches a poll
// topic. Query tokens found verbatim in the topic count fully; the
// leftover tokens on both sides are joined and compared with Ratio,
// and that fuzzy score is credited to the unmatched query mass:
//
//	score = (contained + Ratio(queryResidue, topicResidue) * missing) / len(queryTokens)
//
// A query whose tokens are all contained in the topic scores 1 no
// matter how much extra the topic says. A tokenless query falls back
// to Ratio over the raw strings.
func SubjectScore(query, topic string) float64 {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return Ratio(strings.ToLower(strings.TrimSpace(query)), strings.ToLower(strings.TrimSpace(topic)))
	}

	topicSet := make(map[string]bool)
	for _, token := range Tokenize(topic) {
		topicSet[token] = true
	}

	var residue []string
	contained := 0
	for _, token := range queryTokens {
		if topicSet[token] {
			contained++
			delete(topicSet, token)
		} else {
			residue = append(residue, token)
		}
	}
	if len(residue) == 0 {
		return 1
	}

	var topicResidue []string
	for _, token := range Tokenize(topic) {
		if topicSet[token] {
			topicResidue = append(topicResidue, token)
		}
	}

	residueScore := Ratio(strings.Join(residue, " "), strings.Join(topicResidue, " "))
	return (float64(contained) + residueScore*float64(len(residue))) / float64(len(queryTokens))
}
