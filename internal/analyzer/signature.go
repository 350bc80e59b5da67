package analyzer

import (
	"crypto/sha1" //nolint:gosec // dedup key, not a security boundary
	"encoding/hex"
	"regexp"
	"sort"
	"strings"

	"github.com/surya021104/bug-tracker/internal/model"
)

const minKeywordLen = 3

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Signature fingerprints a signal as sha1(type|sorted keywords|clean url).
// Keyword order, punctuation, case, short words and query strings do not
// change the result.
func Signature(sig model.InterpretedSignal, url string) string {
	kind := string(sig.Type)
	if kind == "" {
		kind = string(model.SignalUnknown)
	}

	text := sig.Title
	if text == "" {
		text = sig.Message
	}

	sum := sha1.Sum([]byte(kind + "|" + Keywords(text) + "|" + CleanURL(url))) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// Keywords normalizes text and returns its words of length >= 3, sorted and
// space separated.
func Keywords(text string) string {
	normalized := normalizeText(text)
	if normalized == "" {
		return ""
	}
	words := strings.Split(normalized, " ")
	kept := words[:0]
	for _, w := range words {
		if len(w) >= minKeywordLen {
			kept = append(kept, w)
		}
	}
	sort.Strings(kept)
	return strings.Join(kept, " ")
}

// CleanURL drops the query string and a single trailing slash.
func CleanURL(url string) string {
	url, _, _ = strings.Cut(url, "?")
	return strings.TrimSuffix(url, "/")
}

func normalizeText(text string) string {
	text = nonWordRe.ReplaceAllString(strings.ToLower(text), "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
