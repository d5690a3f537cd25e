// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollui

import (
	"unicode"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// Slab dimensions for fzf's scratch allocator, the same sizes fzf
// itself uses. One slab serves a whole ApplyFuzzy pass.
const (
	slabSize16 = 100 * 1024
	slabSize32 = 2048
)

// FuzzyResult is the outcome of matching a pattern against one text.
// Score is zero when the pattern does not match. Positions holds the
// rune indices of the matched characters in the text.
type FuzzyResult struct {
	Score     int
	Positions []int
}

// fuzzyMatch runs fzf's matcher over a single text. Matching is
// case-insensitive: the pattern is lowercased here and the matcher
// folds the text side, so positions index the original text. A nil
// slab is allowed; the matcher then allocates its own scratch space.
func fuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{}
	}

	lowered := make([]rune, len(pattern))
	for index, character := range pattern {
		lowered[index] = unicode.ToLower(character)
	}

	chars := util.ToChars([]byte(text))
	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, lowered, true, slab)
	if result.Score <= 0 || positions == nil {
		return FuzzyResult{}
	}
	return FuzzyResult{Score: result.Score, Positions: *positions}
}
