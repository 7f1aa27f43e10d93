package model

// SummaryRecord is the successful outcome of a summarization exchange.
type SummaryRecord struct {
	Summary    string   `json:"summary"`
	Transcript string   `json:"transcript,omitempty"`
	VideoID    string   `json:"videoId,omitempty"`
	Title      string   `json:"title,omitempty"`
	Duration   string   `json:"duration,omitempty"`
	KeyPoints  []string `json:"keyPoints"`
}

// ErrorRecord is the failed outcome of a summarization exchange.
type ErrorRecord struct {
	Error string `json:"error"`
}
