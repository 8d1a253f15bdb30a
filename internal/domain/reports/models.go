package reports

import "time"

// WorkflowDashboard summarizes the leave workflow of one organization.
type WorkflowDashboard struct {
	ByStatus         map[string]int `json:"byStatus"`
	OpenByStage      map[int]int    `json:"openByStage"`
	OpenByReviewer   map[string]int `json:"openByReviewer"`
	AwaitingMe       int            `json:"awaitingMe"`
	MedianDecisionHr float64        `json:"medianDecisionHours"`
}

type JobRunFilter struct {
	JobType string
	Status  string
}

type JobRun struct {
	ID          string         `json:"id"`
	JobType     string         `json:"jobType"`
	Status      string         `json:"status"`
	Details     map[string]any `json:"details"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}
