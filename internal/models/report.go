package models

import "time"

// ReportStatus is the closed set of lifecycle statuses. Transitions are
// permissive: any status may follow any other.
type ReportStatus string

const (
	StatusSubmitted ReportStatus = "submitted"
	StatusInProcess ReportStatus = "in_process"
	StatusResolved  ReportStatus = "resolved"
)

func ParseReportStatus(s string) (ReportStatus, error) {
	switch ReportStatus(s) {
	case StatusSubmitted, StatusInProcess, StatusResolved:
		return ReportStatus(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// ReportPriority is the closed set of report priorities.
type ReportPriority string

const (
	PriorityLow    ReportPriority = "low"
	PriorityMedium ReportPriority = "medium"
	PriorityHigh   ReportPriority = "high"
)

func ParseReportPriority(s string) (ReportPriority, error) {
	switch ReportPriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return ReportPriority(s), nil
	default:
		return "", ErrInvalidPriority
	}
}

// AnonymousOwner replaces the stored owner email in authority-facing views of
// anonymous reports. The stored user_email itself is never altered.
const AnonymousOwner = "Anonymous"

type Report struct {
	ID          string
	ReferenceID string // e.g. CMP-20240101-AB12CD, unique and immutable
	UserEmail   string // Owner; kept even for anonymous reports
	ProblemType string
	Description string
	Location    string
	Status      ReportStatus
	Priority    ReportPriority
	IsAnonymous bool
	Photos      []string // Stored-file references from the upload collaborator
	CreatedAt   time.Time
	UpdatedAt   time.Time // Advances only on a lifecycle transition
}

// ReportFilter carries the optional authority-side query filters. For visitor
// callers the service overwrites UserEmail with the caller's own email before
// querying, so ownership cannot be bypassed by query parameters.
type ReportFilter struct {
	UserEmail   string
	Status      string
	ProblemType string
	Priority    string
}

// Statistics summarizes the report corpus for the authority dashboard.
type Statistics struct {
	TotalReports      int64            `json:"total_reports"`
	ResolvedReports   int64            `json:"resolved_reports"`
	InProgressReports int64            `json:"in_progress_reports"`
	ResolutionRate    float64          `json:"resolution_rate"`
	ReportsByType     map[string]int64 `json:"reports_by_type"`
	WeeklyTrend       []DailyCount     `json:"weekly_trend"`
}

// DailyCount is one day of report submissions.
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}
