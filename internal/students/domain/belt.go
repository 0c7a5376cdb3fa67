// Package domain holds the belt ladder students are promoted along.
package domain

import "strings"

// Belts is the ladder from first to last rank.
var Belts = []string{"White", "Yellow", "Orange", "Green", "Blue", "Purple", "Red", "Brown", "Black"}

// DefaultBelt is the rank every new student starts at.
const DefaultBelt = "White"

// Rank returns the position of belt on the ladder, matching case-insensitively,
// or -1 when it is not a belt.
func Rank(belt string) int {
	for i, b := range Belts {
		if strings.EqualFold(b, strings.TrimSpace(belt)) {
			return i
		}
	}
	return -1
}

// Canonical returns the ladder spelling of belt.
func Canonical(belt string) (string, bool) {
	i := Rank(belt)
	if i < 0 {
		return "", false
	}
	return Belts[i], true
}

// Next returns the belt after current. An unknown current belt counts as
// White; Black has no successor.
func Next(current string) (string, bool) {
	i := Rank(current)
	if i < 0 {
		i = 0
	}
	if i+1 >= len(Belts) {
		return "", false
	}
	return Belts[i+1], true
}
