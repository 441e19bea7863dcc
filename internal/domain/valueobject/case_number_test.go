package valueobject

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCaseNumber(t *testing.T) {
	assert.Equal(t, "DIS-2025-00001", FormatCaseNumber(2025, 1))
	assert.Equal(t, "DIS-2025-12345", FormatCaseNumber(2025, 12345))
	assert.Equal(t, "DIS-2025-", CaseNumberYearPrefix(2025))
}

func TestParseCaseNumber(t *testing.T) {
	year, seq, err := ParseCaseNumber("DIS-2024-00077")
	require.NoError(t, err)
	assert.Equal(t, 2024, year)
	assert.Equal(t, 77, seq)

	for _, bad := range []string{"", "DIS-24-00001", "DIS-2024-1", "CASE-2024-00001", "DIS-2024-000010"} {
		_, _, err := ParseCaseNumber(bad)
		assert.Error(t, err, bad)
	}
}

func TestNextCaseNumber_StrictlyIncreasing(t *testing.T) {
	re := regexp.MustCompile(`^DIS-\d{4}-\d{5}$`)

	last := ""
	for i := 1; i <= 25; i++ {
		next, err := NextCaseNumber(2025, last)
		require.NoError(t, err)
		assert.Regexp(t, re, next)
		if last != "" {
			assert.Greater(t, next, last)
		}
		_, seq, _ := ParseCaseNumber(next)
		assert.Equal(t, i, seq)
		last = next
	}
}

func TestNextCaseNumber_NewYearRestarts(t *testing.T) {
	next, err := NextCaseNumber(2026, "DIS-2025-00420")
	require.NoError(t, err)
	assert.Equal(t, "DIS-2026-00001", next)
}

func TestNextCaseNumber_Exhausted(t *testing.T) {
	_, err := NextCaseNumber(2025, "DIS-2025-99999")
	assert.Error(t, err)
}
