package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type AccessStatus string

const (
	AccessSuccess AccessStatus = "success"
	AccessBlocked AccessStatus = "blocked"
	AccessTimeout AccessStatus = "timeout"
	AccessError   AccessStatus = "error"
)

// Column limits shared by every store.
const (
	MaxLabelLength = 255
	MaxSiteLength  = 100
)

// JobSource is one fetched job posting used as evidence.
type JobSource struct {
	ID             int64        `json:"id"`
	ConversationID uuid.UUID    `json:"conversation_id"`
	URL            string       `json:"url"`
	SourceSite     string       `json:"source_site"`
	Title          string       `json:"title"`
	Company        string       `json:"company"`
	Role           string       `json:"role"`
	DatePosted     *time.Time   `json:"date_posted"`
	FetchedAt      time.Time    `json:"fetched_at"`
	Snippet        string       `json:"snippet"`
	RawText        string       `json:"raw_text,omitempty"`
	AccessStatus   AccessStatus `json:"access_status"`
	ContentHash    string       `json:"content_hash"`
}

// EvidenceText is the text handed to topic extraction.
func (s JobSource) EvidenceText() string {
	if s.RawText != "" {
		return s.RawText
	}
	return s.Snippet
}

// ClampLabels cuts the bounded text columns to their stored length.
func (s *JobSource) ClampLabels() {
	s.SourceSite = Truncate(s.SourceSite, MaxSiteLength)
	s.Company = Truncate(s.Company, MaxLabelLength)
	s.Role = Truncate(s.Role, MaxLabelLength)
}

// Truncate cuts s to at most n characters and trims trailing spaces.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return strings.TrimSpace(s[:pos])
		}
		i++
	}
	return s
}
