package entity

// CreditSummary is the balance view returned by every operation that reports credits
type CreditSummary struct {
	Total     int64 `json:"total"`
	Used      int64 `json:"used"`
	Remaining int64 `json:"remaining"`
}

// WithConsumed returns a copy of s with n more credits used.
// It is used to derive a balance when the store cannot be re-read.
func (s CreditSummary) WithConsumed(n int64) CreditSummary {
	s.Used += n
	s.Remaining = s.Total - s.Used
	if s.Remaining < 0 {
		s.Remaining = 0
	}
	return s
}
