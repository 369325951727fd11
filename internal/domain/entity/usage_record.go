package entity

import "time"

// MaxResponsePreviewLength caps the stored preview of a completion, in characters
const MaxResponsePreviewLength = 500

// UsageRecord is the audit entry written for every metered call that was charged
type UsageRecord struct {
	ID              int64
	AccountID       int64
	Prompt          string
	ResponsePreview string
	CreatedAt       time.Time
}

// NewUsageRecord builds a usage record with the answer truncated to the preview length
func NewUsageRecord(accountID int64, prompt, answer string) *UsageRecord {
	return &UsageRecord{
		AccountID:       accountID,
		Prompt:          prompt,
		ResponsePreview: Preview(answer, MaxResponsePreviewLength),
	}
}

// Preview returns at most limit characters of s
func Preview(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
