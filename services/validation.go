package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	maxPMID          = 999999999
	minSearchTermLen = 2
	maxSearchTermLen = 200
)

var (
	ErrInvalidPMID       = errors.New("invalid pmid")
	ErrInvalidSearchTerm = errors.New("invalid search term")
	ErrInvalidQuery      = errors.New("invalid query")
)

var (
	forbiddenTermSequences = []string{"<", ">", `"`, "'", ";", "--", "/*", "*/"}
	mutatingKeyword        = regexp.MustCompile(`(?i)\b(DROP|DELETE|UPDATE|INSERT|ALTER|CREATE|TRUNCATE|EXEC|EXECUTE)\b`)
	selectPrefix           = regexp.MustCompile(`(?i)^SELECT\b`)
	whitespaceRun          = regexp.MustCompile(`\s+`)
)

// ValidatePMID parses a PubMed identifier in the range 1..999999999.
func ValidatePMID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidPMID)
	}
	pmid, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidPMID, s)
	}
	if pmid <= 0 || pmid > maxPMID {
		return 0, fmt.Errorf("%w: %d is out of range", ErrInvalidPMID, pmid)
	}
	return pmid, nil
}

// ValidateSearchTerm checks a user supplied catalog query and returns it sanitized.
func ValidateSearchTerm(s string) (string, error) {
	term := SanitizeInput(s)
	if len(term) < minSearchTermLen {
		return "", fmt.Errorf("%w: must be at least %d characters", ErrInvalidSearchTerm, minSearchTermLen)
	}
	if len(term) > maxSearchTermLen {
		return "", fmt.Errorf("%w: must be at most %d characters", ErrInvalidSearchTerm, maxSearchTermLen)
	}
	for _, seq := range forbiddenTermSequences {
		if strings.Contains(term, seq) {
			return "", fmt.Errorf("%w: contains %q", ErrInvalidSearchTerm, seq)
		}
	}
	return term, nil
}

// ValidateReadOnlyQuery accepts a single SELECT statement without data or schema
// changing keywords. Keywords only match as whole words, so a column such as
// created_at is allowed.
func ValidateReadOnlyQuery(q string) error {
	q = strings.TrimRight(strings.TrimSpace(q), "; \t\n")
	if q == "" {
		return fmt.Errorf("%w: empty", ErrInvalidQuery)
	}
	if !selectPrefix.MatchString(q) {
		return fmt.Errorf("%w: only SELECT statements are allowed", ErrInvalidQuery)
	}
	if kw := mutatingKeyword.FindString(q); kw != "" {
		return fmt.Errorf("%w: keyword %s is not allowed", ErrInvalidQuery, strings.ToUpper(kw))
	}
	if strings.Contains(q, ";") {
		return fmt.Errorf("%w: multiple statements are not allowed", ErrInvalidQuery)
	}
	return nil
}

// SanitizeInput trims s and collapses whitespace runs to one space.
func SanitizeInput(s string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}
