package repository

import (
	"slices"
	"sort"
	"strings"

	"github.com/m-mizutani/engram/pkg/model"
)

const defaultQueryLimit = 5

// tokenize splits text on whitespace and lower-cases every token
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// scoreMemory computes the keyword relevance of a memory against the query
// tokens. Each query token counts at most one match: it matches a content
// token when either one contains the other as a substring. The match ratio
// is then amplified by importance so that equal keyword matches are ranked
// by importance while a full match on a low-importance memory still beats a
// partial match on a high-importance one:
//
//	score = matchRatio * (0.5 + importance*0.5)
func scoreMemory(queryTokens []string, m *model.Memory) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	contentTokens := tokenize(m.Content)

	matched := 0
	for _, qt := range queryTokens {
		for _, ct := range contentTokens {
			if strings.Contains(ct, qt) || strings.Contains(qt, ct) {
				matched++
				break
			}
		}
	}

	matchRatio := float64(matched) / float64(len(queryTokens))
	return matchRatio * (0.5 + m.Importance*0.5)
}

// rankMemories runs the full filtering pipeline: type filter, importance
// floor, scoring, score floor, sort by score descending (stable, so equal
// scores keep insertion order), and truncation to the limit.
func rankMemories(records []*model.Memory, query string, opts QueryOptions) []*model.SearchResult {
	queryTokens := tokenize(query)

	var results []*model.SearchResult
	for _, m := range records {
		if len(opts.Types) > 0 && !slices.Contains(opts.Types, m.Type) {
			continue
		}
		if opts.MinImportance != nil && m.Importance < *opts.MinImportance {
			continue
		}

		score := scoreMemory(queryTokens, m)
		if score == 0 {
			continue
		}
		if opts.MinScore != nil && score < *opts.MinScore {
			continue
		}

		results = append(results, &model.SearchResult{Memory: m, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if len(results) > limit {
		results = results[:limit]
	}

	return results
}
