package domain

import "time"

// Project is an impact project owned by the user who created it.
type Project struct {
	ID          string
	UserID      string
	Title       string
	ImpactArea  string
	Description string
	ImageURL    *string
	CreatedAt   time.Time
}

// ProjectDraft is the client-supplied part of a project.
type ProjectDraft struct {
	Title       string
	ImpactArea  string
	Description string
	ImageURL    *string
}

// ProjectSummary is a project enriched with engagement counters for listings.
type ProjectSummary struct {
	Project
	SupportersCount int
	IsSupported     bool
}

// UserStats summarises a user's activity across projects.
type UserStats struct {
	ProjectsCreated   int
	ProjectsSupported int
	Reach             int
}
