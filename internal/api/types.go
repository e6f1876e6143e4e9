package api

import (
	"strings"
	"time"
)

type TransformRequest struct {
	Text                   string  `json:"text"`
	TransformationType     string  `json:"transformation_type"`
	OriginalText           string  `json:"original_text,omitempty"`
	AdditionalInstructions *string `json:"additional_instructions"`
	UserID                 string  `json:"user_id,omitempty"`
}

type TransformResponse struct {
	TransformedText    string  `json:"transformed_text"`
	TransformationType string  `json:"transformation_type"`
	ProcessingTime     float64 `json:"processing_time"`
	HistoryID          string  `json:"history_id"`
}

type Health struct {
	Status    string `json:"status"`
	AppName   string `json:"app_name"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

type Transformation struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type Transformations struct {
	Transformations map[string]Transformation `json:"transformations"`
	TotalCount      int                       `json:"total_count"`
}

type HistoryQuery struct {
	Page      int
	PageSize  int
	SavedOnly bool
}

type HistoryItem struct {
	ID                 string    `json:"id"`
	OriginalText       string    `json:"original_text"`
	TransformedText    string    `json:"transformed_text"`
	TransformationType string    `json:"transformation_type"`
	CreatedAt          Timestamp `json:"created_at"`
	IsSaved            bool      `json:"is_saved"`
}

type HistoryPage struct {
	Items    []HistoryItem `json:"items"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Total    int           `json:"total"`
}

type deleteRequest struct {
	IDs    []string `json:"ids"`
	UserID string   `json:"user_id,omitempty"`
}

type deleteResponse struct {
	Deleted int `json:"deleted"`
}

// Timestamp accepts the service's ISO-8601 values with or without a zone.
// Values without one are UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		ts.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			ts.Time = t.UTC()
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + ts.UTC().Format(time.RFC3339Nano) + `"`), nil
}
