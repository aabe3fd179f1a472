package services

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/FumingPower3925/ttrpg-session-manager/types"
)

// Score tiers. Any exact match outranks any prefix match, any prefix match
// outranks any substring match, and any substring match outranks any pure
// subsequence match; within a tier, denser matches win.
const (
	exactScore   = 400.0
	prefixBase   = 300.0
	containsBase = 200.0
	subseqBase   = 0.0
)

// FuzzyScore rates how well query matches text, case-insensitive. Zero means
// "does not match", returned whenever query's characters cannot all be
// found in order (not necessarily contiguously) inside text. Among
// subsequence matches, a higher matched-chars-to-text-length ratio and
// longer runs of consecutive matched characters both raise the score.
func FuzzyScore(text, query string) float64 {
	t := strings.ToLower(text)
	q := strings.ToLower(query)
	if len(q) == 0 || len(t) == 0 {
		return 0
	}

	ratio := float64(len(q)) / float64(len(t))
	if ratio > 1 {
		return 0 // query longer than text can never be a subsequence
	}

	if t == q {
		return exactScore
	}
	if strings.HasPrefix(t, q) {
		return prefixBase + 50*ratio
	}
	if strings.Contains(t, q) {
		return containsBase + 50*ratio
	}

	matched, maxRun := subsequenceRuns(t, q)
	if !matched {
		return 0
	}
	return subseqBase + 100*ratio + 50*float64(maxRun)/float64(len(q))
}

// subsequenceRuns greedily matches query inside text and reports whether all
// characters were found in order, along with the longest run of consecutive
// matches.
func subsequenceRuns(text, query string) (bool, int) {
	qi := 0
	run := 0
	maxRun := 0
	prevMatched := false

	for ti := 0; ti < len(text) && qi < len(query); ti++ {
		if text[ti] == query[qi] {
			qi++
			if prevMatched {
				run++
			} else {
				run = 1
			}
			if run > maxRun {
				maxRun = run
			}
			prevMatched = true
		} else {
			prevMatched = false
		}
	}
	return qi == len(query), maxRun
}

// FilterPlaylists returns the playlists matching query, best match first. A
// blank query is the identity: the input comes back unchanged, original
// order preserved. Equal scores fall back to Jaro-Winkler similarity so the
// ordering stays deterministic.
func FilterPlaylists(playlists []types.Playlist, query string) []types.Playlist {
	if strings.TrimSpace(query) == "" {
		return playlists
	}

	type scored struct {
		playlist types.Playlist
		score    float64
	}

	var matches []scored
	for _, playlist := range playlists {
		if score := FuzzyScore(playlist.Name, query); score > 0 {
			matches = append(matches, scored{playlist, score})
		}
	}

	q := strings.ToLower(query)
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		left := matchr.JaroWinkler(strings.ToLower(matches[i].playlist.Name), q, false)
		right := matchr.JaroWinkler(strings.ToLower(matches[j].playlist.Name), q, false)
		return left > right
	})

	result := make([]types.Playlist, 0, len(matches))
	for _, m := range matches {
		result = append(result, m.playlist)
	}
	return result
}
