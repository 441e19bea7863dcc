package validation

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"github.com/shopspring/decimal"
)

// Константы валидации
const (
	MinDisputeTitleLength       = 3
	MaxDisputeTitleLength       = 200
	MinDisputeDescriptionLength = 10
	MaxDisputeDescriptionLength = 5000
	MaxCommentLength            = 2000
	MaxResolutionSummaryLength  = 5000
	MaxEvidenceTitleLength      = 200
	MaxEvidenceDescriptionLen   = 5000
	MaxFileNameLength           = 255
	MaxExternalLinkLength       = 500
)

// MaxAmount ограничивает суммы NUMERIC(12,2).
var MaxAmount = decimal.New(1, 10)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s must be at most %d characters", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must not be empty", fieldName)
	}
	return nil
}

// ValidateRequired проверяет обязательное текстовое поле с границами длины.
func ValidateRequired(fieldName, value string, min, max int) error {
	if err := ValidateNonEmpty(fieldName, value); err != nil {
		return err
	}
	return ValidateLength(fieldName, strings.TrimSpace(value), min, max)
}

// ValidateOptional проверяет необязательное поле только на максимальную длину.
func ValidateOptional(fieldName string, value *string, max int) error {
	if value == nil {
		return nil
	}
	return ValidateLength(fieldName, strings.TrimSpace(*value), 0, max)
}

// ValidateAmount проверяет денежную сумму: не отрицательная, не больше MaxAmount, два знака после запятой.
func ValidateAmount(fieldName string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%s must not be negative", fieldName)
	}
	if amount.GreaterThanOrEqual(MaxAmount) {
		return fmt.Errorf("%s is too large", fieldName)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%s must have at most two decimal places", fieldName)
	}
	return nil
}

// ValidateCurrency проверяет трёхбуквенный код ISO 4217.
func ValidateCurrency(code string) error {
	if !currencyPattern.MatchString(code) {
		return errors.New("currency must be a three-letter code such as KRW")
	}
	return nil
}

// ValidateExternalLink проверяет внешнюю ссылку.
func ValidateExternalLink(link *string) error {
	if link != nil && *link != "" {
		linkStr := strings.TrimSpace(*link)

		if err := ValidateLength("external link", linkStr, 0, MaxExternalLinkLength); err != nil {
			return err
		}

		parsedURL, err := url.Parse(linkStr)
		if err != nil {
			return errors.New("external link is not a valid URL")
		}

		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return errors.New("external link must start with http:// or https://")
		}

		if parsedURL.Host == "" {
			return errors.New("external link must contain a host")
		}
	}
	return nil
}

// AttachmentType описывает распознанный тип вложения.
type AttachmentType struct {
	MIME      string
	MediaType string
	Extension string
}

// DetectAttachmentType определяет MIME вложения по расширению имени файла.
// Неизвестные расширения отклоняются.
func DetectAttachmentType(fileName string) (AttachmentType, error) {
	if err := ValidateRequired("file name", fileName, 1, MaxFileNameLength); err != nil {
		return AttachmentType{}, err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if ext == "" || !filetype.IsSupported(ext) {
		return AttachmentType{}, fmt.Errorf("unsupported file type %q", fileName)
	}

	kind := filetype.GetType(ext)
	if kind == filetype.Unknown {
		return AttachmentType{}, fmt.Errorf("unsupported file type %q", fileName)
	}

	return AttachmentType{
		MIME:      kind.MIME.Value,
		MediaType: kind.MIME.Type,
		Extension: kind.Extension,
	}, nil
}
