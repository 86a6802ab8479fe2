package utils

import (
	"strconv"
)

// ParseID parses a positive numeric path id; ok is false otherwise.
func ParseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// ParsePositiveInt returns fallback when s is empty, malformed or < 1.
func ParsePositiveInt(s string, fallback int) int {
	i, err := strconv.Atoi(s)
	if err != nil || i < 1 {
		return fallback
	}
	return i
}
