package query

import "strings"

// TrimField strips surrounding blanks (spaces, tabs, newlines) from a field.
// Useful as the first post filter when a monitor pads its output.
func TrimField(s string) string {
	return strings.Trim(s, " \t\n")
}

// Lowercase folds a field to lower case, for case-insensitive downstream
// matching.
func Lowercase(s string) string {
	return strings.ToLower(s)
}
