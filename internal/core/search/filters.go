package search

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/neilberkman/vigil/internal/core/calendar"
)

// ParseQuery extracts filters from a search query string
// Supports:
//   - kind:<type> - filter by kind (rosary, chaplet, novena, 54-day, or a novena key)
//   - date:yesterday, date:2024-11-01 - a single day
//   - after:last-week, before:2024-11-01 - explicit date ranges
//   - done - completed sessions only
//
// Multi-word dates may be written with hyphens ("after:last-week") or spaces
// ("after:last week"). Dates that cannot be parsed are kept as search text.
func ParseQuery(query string, now time.Time) Filters {
	filters := Filters{}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	tokens := strings.Fields(query)
	var queryParts []string

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		prefix, value, hasPrefix := strings.Cut(token, ":")
		if !hasPrefix {
			if strings.EqualFold(token, "done") {
				filters.CompletedOnly = true
				continue
			}
			queryParts = append(queryParts, token)
			continue
		}

		switch strings.ToLower(prefix) {
		case "kind":
			filters.Kind = value
			continue
		case "date", "after", "before":
			var following []string
			for j := i + 1; j < len(tokens) && j <= i+2 && !strings.Contains(tokens[j], ":"); j++ {
				following = append(following, tokens[j])
			}
			date, consumed, ok := parseDate(w, value, following, now)
			if !ok {
				break
			}
			i += consumed
			switch strings.ToLower(prefix) {
			case "date":
				filters.After, filters.Before = date, date
			case "after":
				filters.After = date
			case "before":
				filters.Before = date
			}
			continue
		}

		queryParts = append(queryParts, token)
	}

	filters.Query = strings.Join(queryParts, " ")
	return filters
}

// parseDate resolves value, optionally continued by up to two following query
// words, to a calendar day. consumed is how many of the following words were
// part of the date.
func parseDate(w *when.Parser, value string, following []string, now time.Time) (date calendar.Date, consumed int, ok bool) {
	if value == "" {
		return "", 0, false
	}

	// Try standard formats
	formats := []string{
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, value); err == nil {
			return calendar.Of(t), 0, true
		}
	}

	phrase := strings.ReplaceAll(value, "-", " ")
	for n := len(following); n >= 0; n-- {
		words := append([]string{phrase}, following[:n]...)
		result, err := w.Parse(strings.Join(words, " "), now)
		if err != nil || result == nil {
			continue
		}
		// Only count trailing words the parser actually used.
		if n > 0 && !strings.Contains(strings.ToLower(result.Text), strings.ToLower(following[n-1])) {
			continue
		}
		return calendar.Of(result.Time.In(now.Location())), n, true
	}
	return "", 0, false
}
