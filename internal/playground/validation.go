// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package playground

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/oops"
)

// Validation limits.
const (
	MaxNameLength     = 200
	MaxSummaryLength  = 2000
	MaxTagCount       = 50
	MaxTagLength      = 64
	MaxMarkdownLength = 1 << 20
)

// NormalizeName trims and validates a node name.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalidInput("name", "name cannot be empty")
	}
	if !utf8.ValidString(name) {
		return "", invalidInput("name", "name must be valid UTF-8")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", invalidInput("name", "name exceeds maximum length")
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return "", invalidInput("name", "name cannot contain control characters")
	}
	return name, nil
}

// normalizeSummary trims a summary; blank clears it.
func normalizeSummary(summary string) (*string, error) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return nil, nil
	}
	if !utf8.ValidString(summary) || utf8.RuneCountInString(summary) > MaxSummaryLength {
		return nil, invalidInput("summary", "summary is invalid or too long")
	}
	return &summary, nil
}

// normalizeTags trims tags and drops blanks and duplicates.
func normalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		if !utf8.ValidString(tag) || utf8.RuneCountInString(tag) > MaxTagLength {
			return nil, invalidInput("tags", "tag is invalid or too long")
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > MaxTagCount {
		return nil, invalidInput("tags", "too many tags")
	}
	return out, nil
}

func validateMarkdown(markdown string) error {
	if !utf8.ValidString(markdown) {
		return invalidInput("markdown", "markdown must be valid UTF-8")
	}
	if len(markdown) > MaxMarkdownLength {
		return invalidInput("markdown", "markdown exceeds maximum length")
	}
	return nil
}

func invalidInput(field, msg string) error {
	return oops.Code(CodeInvalidInput).With("field", field).Errorf("%s", msg)
}
