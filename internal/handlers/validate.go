package handlers

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Validation limits for content fields, mirroring the dashboard's form
// constraints.
const (
	maxTitleLen    = 300
	maxSlugLen     = 300
	maxBodyLen     = 100_000
	maxExcerptLen  = 1_000
	maxMetaDescLen = 500
	maxBlocksLen   = 200_000
	maxBlockName   = 200
	maxSchemaLen   = 100_000
)

// validatePageFields checks page inputs and returns the first error found.
func validatePageFields(title, slug string, metaDesc *string, blocks json.RawMessage) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "title is required"
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "title is too long (max 300 characters)"
	}
	if utf8.RuneCountInString(slug) > maxSlugLen {
		return "slug is too long (max 300 characters)"
	}
	if metaDesc != nil && utf8.RuneCountInString(*metaDesc) > maxMetaDescLen {
		return "meta description is too long (max 500 characters)"
	}
	if len(blocks) > maxBlocksLen {
		return "blocks payload is too large"
	}
	return ""
}

// validatePostFields checks post inputs and returns the first error found.
func validatePostFields(title, slug, body string, excerpt, metaDesc *string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "title is required"
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "title is too long (max 300 characters)"
	}
	if utf8.RuneCountInString(slug) > maxSlugLen {
		return "slug is too long (max 300 characters)"
	}
	if strings.Contains(slug, "/") {
		return "post slugs cannot contain path separators"
	}
	if utf8.RuneCountInString(body) > maxBodyLen {
		return "body is too long (max 100,000 characters)"
	}
	if excerpt != nil && utf8.RuneCountInString(*excerpt) > maxExcerptLen {
		return "excerpt is too long (max 1,000 characters)"
	}
	if metaDesc != nil && utf8.RuneCountInString(*metaDesc) > maxMetaDescLen {
		return "meta description is too long (max 500 characters)"
	}
	return ""
}

// validateBlockFields checks block definition inputs.
func validateBlockFields(name, slug string, schema json.RawMessage) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "name is required"
	}
	if utf8.RuneCountInString(name) > maxBlockName {
		return "name is too long (max 200 characters)"
	}
	if slug == "" {
		return "slug is required"
	}
	if strings.Contains(slug, "/") {
		return "block slugs cannot contain path separators"
	}
	if len(schema) > maxSchemaLen {
		return "schema is too large"
	}
	return ""
}
