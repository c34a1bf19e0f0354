package rag

import "strings"

// expansion maps a common user phrase to a field-specific retrieval query.
// Rule-based and deterministic so answers stay explainable; first match wins.
type expansion struct {
	pattern  string
	expanded string
}

var expansions = []expansion{
	{"medium risk incidents", "incidents with medium severity level, status open or investigating"},
	{"medium severity", "incidents with severity level medium"},
	{"high risk incidents", "incidents with high severity level"},
	{"critical issues", "incidents with critical severity level"},
	{"critical incidents", "incidents with critical severity level"},
	{"network problems", "network connectivity incidents, outages, connection timeouts, or network-related issues"},
	{"network issues", "network connectivity incidents, outages, connection timeouts, or network-related issues"},
	{"network connectivity", "network connectivity incidents, outages, connection timeouts, or network-related issues"},
	{"database problems", "database connectivity, timeout, or database-related incidents"},
	{"security alerts", "security incidents, unauthorized access, or security-related issues"},
}

// Enhance rewrites common user phrasings into field-specific queries for
// better retrieval. Queries with no known phrase pass through unchanged.
func Enhance(query string) string {
	lower := strings.ToLower(query)
	for _, e := range expansions {
		if strings.Contains(lower, e.pattern) {
			return e.expanded
		}
	}
	return query
}
