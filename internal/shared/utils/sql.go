package utils

import "strings"

// JoinWithAnd joins WHERE clauses with AND
func JoinWithAnd(clauses []string) string {
	return strings.Join(clauses, " AND ")
}

// JoinWithOr joins clauses with OR and wraps them in parentheses
func JoinWithOr(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return "(" + strings.Join(clauses, " OR ") + ")"
}
