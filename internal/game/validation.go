package game

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Limits bounds user-supplied input.
type Limits struct {
	DefaultCapacity     int
	MinCapacity         int
	MaxCapacity         int
	MaxQuestionLength   int
	MaxNameLength       int
	MaxPredictionLength int
}

func DefaultLimits() Limits {
	return Limits{
		DefaultCapacity:     5,
		MinCapacity:         2,
		MaxCapacity:         20,
		MaxQuestionLength:   500,
		MaxNameLength:       50,
		MaxPredictionLength: 1000,
	}
}

func (l Limits) ValidateQuestion(text string) (string, error) {
	return validateText("question", strings.TrimSpace(text), l.MaxQuestionLength)
}

func (l Limits) ValidateName(name string) (string, error) {
	return validateText("display name", normalizeText(name), l.MaxNameLength)
}

// ValidatePrediction keeps inner line breaks; predictions are free text.
func (l Limits) ValidatePrediction(text string) (string, error) {
	return validateText("prediction", strings.TrimSpace(text), l.MaxPredictionLength)
}

// ValidateCapacity maps 0 to the default capacity.
func (l Limits) ValidateCapacity(capacity int) (int, error) {
	if capacity == 0 {
		return l.DefaultCapacity, nil
	}
	if capacity < l.MinCapacity || capacity > l.MaxCapacity {
		return 0, validationError("capacity must be between %d and %d", l.MinCapacity, l.MaxCapacity)
	}
	return capacity, nil
}

func validateText(label, text string, maxLen int) (string, error) {
	if text == "" {
		return "", validationError("%s is required", label)
	}
	if maxLen > 0 && utf8.RuneCountInString(text) > maxLen {
		return "", validationError("%s must be %d characters or fewer", label, maxLen)
	}
	if !IsSafeText(text) {
		return "", validationError("%s contains unsupported characters", label)
	}
	return text, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

// IsSafeText rejects invalid UTF-8 and control characters other than line
// breaks and tabs.
func IsSafeText(text string) bool {
	if !utf8.ValidString(text) {
		return false
	}
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
