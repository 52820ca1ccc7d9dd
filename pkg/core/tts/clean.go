// Package tts turns assistant replies into spoken audio for one-shot
// read-aloud playback, separate from the live duplex voice path.
package tts

import (
	"regexp"
	"strings"
)

var (
	reHeader     = regexp.MustCompile(`(?m)^#+\s+`)
	reBold       = regexp.MustCompile(`\*\*|__`)
	reItalic     = regexp.MustCompile(`[*_]`)
	reLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	reCodeBlock  = regexp.MustCompile("```[\\s\\S]*?```")
	reInlineCode = regexp.MustCompile("`([^`]+)`")
	reListMarker = regexp.MustCompile(`(?m)^\s*[-*•]\s+`)
	reNumbered   = regexp.MustCompile(`(?m)^\d+\.\s+`)
	reURL        = regexp.MustCompile(`https?://\S+`)
	reSpace      = regexp.MustCompile(`\s+`)
)

// CleanTextForSpeech strips Markdown artifacts and normalizes legal
// acronyms so synthesized speech does not read out formatting symbols.
// It is a pure function and applying it twice gives the same result.
func CleanTextForSpeech(text string) string {
	if text == "" {
		return ""
	}

	s := reHeader.ReplaceAllString(text, "")
	s = reBold.ReplaceAllString(s, "")
	s = reItalic.ReplaceAllString(s, "")
	s = reLink.ReplaceAllString(s, "$1")
	s = reCodeBlock.ReplaceAllString(s, "")
	s = reInlineCode.ReplaceAllString(s, "$1")
	s = reListMarker.ReplaceAllString(s, "")
	s = reNumbered.ReplaceAllString(s, "")
	s = reURL.ReplaceAllString(s, "the website")

	// Spelled-out acronyms read far better than the raw letter clusters.
	s = strings.ReplaceAll(s, "CrPC", "C R P C")
	s = strings.ReplaceAll(s, "IPC", "I P C")
	s = strings.ReplaceAll(s, "FIR", "F I R")

	s = reSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
