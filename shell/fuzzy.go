package shell

import (
	"sort"
	"strings"
)

// maxSuggestions bounds the candidates offered for an unknown word.
const maxSuggestions = 5

// minScore drops matches too scattered to be useful.
const minScore = 0.2

// matchScore rates how well word matches name, between 0 and 1. Prefix
// matches beat substring matches, which beat in-order subsequences.
func matchScore(word, name string) float64 {
	if word == "" {
		return 0
	}
	w, n := strings.ToLower(word), strings.ToLower(name)
	switch {
	case w == n:
		return 1
	case strings.HasPrefix(n, w):
		return 0.9
	case strings.Contains(n, w):
		return 0.8
	}

	// Positions of the word's bytes found in order within name.
	var hits []int
	i := 0
	for j := 0; i < len(w) && j < len(n); j++ {
		if w[i] == n[j] {
			hits = append(hits, j)
			i++
		}
	}
	if i < len(w) {
		return 0
	}
	score := float64(len(w)) / float64(len(n))
	for k := 1; k < len(hits); k++ {
		score -= float64(hits[k]-hits[k-1]-1) / float64(len(n))
	}
	score += 0.1 * (1 - float64(hits[0])/float64(len(n)))
	return min(max(score*0.7, 0), 1)
}

// rank returns the names matching word, best first.
func rank(word string, names []string) []string {
	type scored struct {
		name  string
		score float64
	}
	var found []scored
	for _, n := range names {
		if s := matchScore(word, n); s >= minScore {
			found = append(found, scored{n, s})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].score > found[j].score })
	out := make([]string, 0, min(len(found), maxSuggestions))
	for _, f := range found[:min(len(found), maxSuggestions)] {
		out = append(out, f.name)
	}
	return out
}

// Suggest returns the names at the current object that word may have meant:
// builtins, commands and children.
func (s *Shell) Suggest(word string) []string {
	var names []string
	for _, n := range append(append(append([]string{}, builtinNames...), s.commands()...), s.children(s.current)...) {
		if !contains(names, n) {
			names = append(names, n)
		}
	}
	return rank(word, names)
}
