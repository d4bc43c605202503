package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLetterGrade(t *testing.T) {
	cases := []struct {
		score  float64
		letter string
	}{
		{100, "A"},
		{90, "A"},
		{89.99, "B"},
		{80, "B"},
		{75, "C"},
		{60, "D"},
		{59.99, "F"},
		{0, "F"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.letter, Grade{Score: tc.score}.LetterGrade(), "score %v", tc.score)
	}
}

func TestGradePoints(t *testing.T) {
	cases := []struct {
		score  float64
		points float64
	}{
		{95, 4.0},
		{93, 4.0},
		{90, 3.7},
		{85, 3.0},
		{80, 2.7},
		{70, 1.7},
		{60, 0.7},
		{59.99, 0.0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.points, GradePoints(tc.score), "score %v", tc.score)
	}
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 84.33, RoundHalfUp(84.333333))
	assert.Equal(t, 77.78, RoundHalfUp(77.777))
	assert.Equal(t, 84.34, RoundHalfUp(84.336))
	assert.Equal(t, 0.0, RoundHalfUp(0))
}
