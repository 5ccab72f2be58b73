// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package search

// stopWords are stripped from queries and candidate text before keyword
// scoring. The list covers common English function words; it is not
// meant to be exhaustive, only large enough to stop trivial terms from
// dominating frequency scores.
var stopWords = buildStopWords(
	"a", "about", "above", "after", "again", "against", "all", "am", "an",
	"and", "any", "are", "aren't", "as", "at", "be", "because", "been",
	"before", "being", "below", "between", "both", "but", "by", "can't",
	"cannot", "could", "couldn't", "did", "didn't", "do", "does", "doesn't",
	"doing", "don't", "down", "during", "each", "few", "for", "from",
	"further", "had", "hadn't", "has", "hasn't", "have", "haven't",
	"having", "he", "her", "here", "hers", "herself", "him", "himself",
	"his", "how", "i", "if", "in", "into", "is", "isn't", "it", "it's",
	"its", "itself", "let's", "me", "more", "most", "mustn't", "my",
	"myself", "no", "nor", "not", "of", "off", "on", "once", "only", "or",
	"other", "ought", "our", "ours", "ourselves", "out", "over", "own",
	"same", "shan't", "she", "should", "shouldn't", "so", "some", "such",
	"than", "that", "that's", "the", "their", "theirs", "them",
	"themselves", "then", "there", "there's", "these", "they", "this",
	"those", "through", "to", "too", "under", "until", "up", "very",
	"was", "wasn't", "we", "were", "weren't", "what", "when", "where",
	"which", "while", "who", "whom", "why", "with", "won't", "would",
	"wouldn't", "you", "your", "yours", "yourself", "yourselves",
)

func buildStopWords(words ...string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}

// IsStopWord reports whether tok (already lowercased) is stripped from
// scoring.
func IsStopWord(tok string) bool { return stopWords[tok] }
