package model

// PublishStats accumulates the outcome of a publish run.
type PublishStats struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// Total returns the number of records considered.
func (s PublishStats) Total() int {
	return s.Success + s.Failed + s.Skipped
}
