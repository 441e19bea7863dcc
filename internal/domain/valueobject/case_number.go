package valueobject

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	CaseNumberPrefix = "DIS"
	// MaxCaseSequence - пятизначный счётчик в пределах года.
	MaxCaseSequence = 99999
)

var caseNumberPattern = regexp.MustCompile(`^DIS-(\d{4})-(\d{5})$`)

// FormatCaseNumber собирает номер вида DIS-2025-00042.
func FormatCaseNumber(year, seq int) string {
	return fmt.Sprintf("%s-%04d-%05d", CaseNumberPrefix, year, seq)
}

// CaseNumberYearPrefix возвращает префикс номеров для года, например "DIS-2025-".
func CaseNumberYearPrefix(year int) string {
	return fmt.Sprintf("%s-%04d-", CaseNumberPrefix, year)
}

// ParseCaseNumber извлекает год и порядковый номер.
func ParseCaseNumber(caseNumber string) (year, seq int, err error) {
	m := caseNumberPattern.FindStringSubmatch(caseNumber)
	if m == nil {
		return 0, 0, fmt.Errorf("case number %q has invalid format", caseNumber)
	}
	year, _ = strconv.Atoi(m[1])
	seq, _ = strconv.Atoi(m[2])
	return year, seq, nil
}

func IsCaseNumber(s string) bool {
	return caseNumberPattern.MatchString(s)
}

// NextCaseNumber выдаёт следующий номер за last; пустой last начинает год с 1.
func NextCaseNumber(year int, last string) (string, error) {
	if last == "" {
		return FormatCaseNumber(year, 1), nil
	}
	lastYear, seq, err := ParseCaseNumber(last)
	if err != nil {
		return "", err
	}
	if lastYear != year {
		return FormatCaseNumber(year, 1), nil
	}
	if seq >= MaxCaseSequence {
		return "", fmt.Errorf("case number sequence exhausted for %d", year)
	}
	return FormatCaseNumber(year, seq+1), nil
}
