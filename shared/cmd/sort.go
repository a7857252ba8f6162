package cmd

import (
	"github.com/fvbommel/sortorder"
)

// StringList represents the type for sorting nested string lists.
type StringList [][]string

func (a StringList) Len() int {
	return len(a)
}

func (a StringList) Swap(i, j int) {
	a[i], a[j] = a[j], a[i]
}

// Less compares rows column by column in natural order. Empty strings sort last.
func (a StringList) Less(i, j int) bool {
	x := 0
	for x = range a[i] {
		if x >= len(a[j]) {
			return false
		}

		if a[i][x] != a[j][x] {
			break
		}
	}

	if x >= len(a[j]) {
		return false
	}

	if a[i][x] == "" {
		return false
	}

	if a[j][x] == "" {
		return true
	}

	return sortorder.NaturalLess(a[i][x], a[j][x])
}
