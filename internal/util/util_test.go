package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedRange(t *testing.T) {
	for _, tc := range []struct {
		name     string
		m        map[string]int
		expected []int
	}{
		{
			name:     "empty",
			m:        map[string]int{},
			expected: []int{},
		},
		{
			name:     "ordered by key",
			m:        map[string]int{"c": 3, "a": 1, "b": 2},
			expected: []int{1, 2, 3},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, OrderedRange(tc.m))
		})
	}
}

func TestToPointerAndSafeDeref(t *testing.T) {
	assert.Equal(t, 42, SafeDeref(ToPointer(42)))
	assert.Equal(t, 0, SafeDeref[int](nil))
	assert.Equal(t, "", SafeDeref[string](nil))
}

func TestParseCron(t *testing.T) {
	for _, tc := range []struct {
		name    string
		cronExp string
		hasErr  bool
	}{
		{
			name:    "every five minutes",
			cronExp: "*/5 * * * *",
			hasErr:  false,
		},
		{
			name:    "with seconds field",
			cronExp: "0 */5 * * * *",
			hasErr:  false,
		},
		{
			name:    "descriptor",
			cronExp: "@hourly",
			hasErr:  false,
		},
		{
			name:    "invalid",
			cronExp: "random",
			hasErr:  true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCron(tc.cronExp)
			if tc.hasErr {
				assert.NotNil(t, err)
			} else {
				assert.Nil(t, err)
			}
		})
	}
}
