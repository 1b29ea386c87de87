// Package search implements the question search predicate and listing orders.
package search

import (
	"regexp"
	"sort"
	"strings"

	"github.com/qa-forum-api/internal/models"
)

var tagFilter = regexp.MustCompile(`\[([^\[\]]*)\]`)

// Query is a parsed search string
type Query struct {
	Tags  []string
	Words []string
}

// Parse splits a raw query into [tag] filters and word filters, all lowercased
func Parse(raw string) Query {
	var q Query
	for _, m := range tagFilter.FindAllStringSubmatch(raw, -1) {
		if tag := strings.ToLower(strings.TrimSpace(m[1])); tag != "" {
			q.Tags = append(q.Tags, tag)
		}
	}
	rest := tagFilter.ReplaceAllString(raw, " ")
	for _, w := range strings.Fields(rest) {
		q.Words = append(q.Words, strings.ToLower(w))
	}
	return q
}

// Empty reports whether the query has no filters at all
func (q Query) Empty() bool {
	return len(q.Tags) == 0 && len(q.Words) == 0
}

// Match reports whether question satisfies any tag filter or any word filter
func (q Query) Match(question *models.Question) bool {
	for _, tag := range q.Tags {
		for _, t := range question.Tags {
			if strings.EqualFold(t.Name, tag) {
				return true
			}
		}
	}
	if len(q.Words) == 0 {
		return false
	}
	title := strings.ToLower(question.Title)
	text := strings.ToLower(question.Text)
	for _, w := range q.Words {
		if strings.Contains(title, w) || strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// Filter returns the matching questions, newest first
func Filter(raw string, questions []*models.Question) []*models.Question {
	q := Parse(raw)
	out := []*models.Question{}
	if q.Empty() {
		return out
	}
	for _, question := range questions {
		if q.Match(question) {
			out = append(out, question)
		}
	}
	SortNewest(out)
	return out
}

// SortNewest orders questions by ask time descending, ties by id
func SortNewest(questions []*models.Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		a, b := questions[i], questions[j]
		if !a.AskedAt.Equal(b.AskedAt) {
			return a.AskedAt.After(b.AskedAt)
		}
		return a.ID < b.ID
	})
}

// Order returns the questions arranged for the given listing order.
// Active puts answered questions first by most recent answer, then
// unanswered ones by ask time; Unanswered keeps only unanswered ones.
func Order(questions []*models.Question, order models.QuestionOrder) []*models.Question {
	out := make([]*models.Question, 0, len(questions))
	switch order {
	case models.OrderUnanswered:
		for _, q := range questions {
			if len(q.AnswerIDs) == 0 {
				out = append(out, q)
			}
		}
		SortNewest(out)
	case models.OrderActive:
		var answered, unanswered []*models.Question
		for _, q := range questions {
			if q.LastAnsweredAt != nil {
				answered = append(answered, q)
			} else {
				unanswered = append(unanswered, q)
			}
		}
		sort.SliceStable(answered, func(i, j int) bool {
			a, b := answered[i], answered[j]
			if !a.LastAnsweredAt.Equal(*b.LastAnsweredAt) {
				return a.LastAnsweredAt.After(*b.LastAnsweredAt)
			}
			return a.AskedAt.After(b.AskedAt)
		})
		SortNewest(unanswered)
		out = append(out, answered...)
		out = append(out, unanswered...)
	default:
		out = append(out, questions...)
		SortNewest(out)
	}
	return out
}
