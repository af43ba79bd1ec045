package helpers

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

var digitPattern = regexp.MustCompile(`[0-9]+`)

// ParseYen extracts an integer amount from a price token such as
// "¥1,980", "1980円" or "2,980". Returns 0 when no digits are present.
func ParseYen(s string) int {
	cleaned := strings.ReplaceAll(s, ",", "")
	m := digitPattern.FindString(cleaned)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// CollapseSpace trims a string and collapses internal runs of whitespace
// (including full-width spaces) to a single space.
func CollapseSpace(s string) string {
	s = strings.ReplaceAll(s, "　", " ")
	return strings.Join(strings.Fields(s), " ")
}
