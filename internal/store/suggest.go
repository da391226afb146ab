package store

import (
	"context"
	"sort"
	"strings"

	"maisync/internal/records"

	"github.com/antzucaro/matchr"
)

type Suggestion struct {
	Title      string
	Similarity float64
}

// SuggestTitles ranks stored titles by Jaro-Winkler similarity to query,
// titles that contain the query as a substring always rank first.
func (s Store) SuggestTitles(ctx context.Context, query string, n int) ([]Suggestion, error) {
	titles, err := s.qry.ListScoreTitles(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "ListScoreTitles")
		return nil, storageError("list titles", err)
	}

	normalizedQuery := records.NormalizeTitle(query)
	if normalizedQuery == "" || n <= 0 {
		return nil, nil
	}

	suggestions := make([]Suggestion, 0, len(titles))
	for _, title := range titles {
		normalized := records.NormalizeTitle(title)
		similarity := matchr.JaroWinkler(normalizedQuery, normalized, false)
		if strings.Contains(normalized, normalizedQuery) {
			similarity += 1
		}
		if similarity <= 0 {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Title:      title,
			Similarity: similarity,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Similarity > suggestions[j].Similarity
	})
	if len(suggestions) > n {
		suggestions = suggestions[:n]
	}
	return suggestions, nil
}
