package types

type SummarySnapshot struct {
	RunID    string         `json:"run_id"`
	Counts   map[string]int `json:"counts"`
	LastPath string         `json:"last_path,omitempty"`
	Written  []int          `json:"written"`
}

type UISnapshot struct {
	Type string          `json:"type"`
	Data SummarySnapshot `json:"data"`
}
