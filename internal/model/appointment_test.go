package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidDate(t *testing.T) {
	valid := []string{"2026-03-02", "2026-12-31", "2024-02-29"}
	for _, s := range valid {
		assert.True(t, ValidDate(s), s)
	}

	invalid := []string{
		"2026-3-2",   // unpadded
		"2026-03-2",  // unpadded day
		"02/03/2026", // wrong separator
		"2026-13-01", // no such month
		"2026-02-30", // no such day
		"2026-03-02T00:00:00Z",
		"",
	}
	for _, s := range invalid {
		assert.False(t, ValidDate(s), s)
	}
}

func TestValidClock(t *testing.T) {
	valid := []string{"00:00", "09:15", "12:30", "23:59"}
	for _, s := range valid {
		assert.True(t, ValidClock(s), s)
	}

	invalid := []string{
		"9:15", // unpadded hour breaks lexicographic comparison
		"09:5",
		"24:00",
		"12:60",
		"0915",
		"09:15:00",
		"",
	}
	for _, s := range invalid {
		assert.False(t, ValidClock(s), s)
	}
}
