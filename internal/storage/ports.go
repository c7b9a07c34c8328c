package storage

import (
	"context"
	"errors"

	"forecast/internal/core"
)

// ErrNotFound is returned when a single record lookup has no match.
var ErrNotFound = errors.New("record not found")

// Ports implemented by the SQLite repository and the in-memory store.
type (
	ProjectReader interface {
		GetProject(ctx context.Context, id string) (core.Project, error)
		// ListProjects returns at most limit projects ordered by name.
		ListProjects(ctx context.Context, limit int) ([]core.Project, error)
		// ListProjectsByType is ListProjects restricted to one project type code.
		ListProjectsByType(ctx context.Context, projectType string, limit int) ([]core.Project, error)
	}

	ConsultantReader interface {
		FindConsultantByUser(ctx context.Context, userID string) (core.Consultant, error)
	}

	RosterReader interface {
		// ListRosterEntries returns the project's roster with each consultant loaded.
		ListRosterEntries(ctx context.Context, projectID string) ([]core.RosterEntry, error)
	}

	ForecastStore interface {
		ListForecastEntries(ctx context.Context, projectID string) ([]core.ForecastEntry, error)
		// ReplaceForecastEntries removes the project's Planned Cost and Revenue
		// entries and stores the given ones in their place, atomically.
		ReplaceForecastEntries(ctx context.Context, projectID string, entries []core.ForecastEntry) error
	}

	TimesheetStore interface {
		FindTimesheet(ctx context.Context, week core.Date, consultantID string) (core.Timesheet, error)
		CreateTimesheet(ctx context.Context, t core.Timesheet) (core.Timesheet, error)
	}

	// CatalogWriter loads reference data: projects, consultants and roster.
	CatalogWriter interface {
		SaveProject(ctx context.Context, p core.Project) (core.Project, error)
		SaveConsultant(ctx context.Context, c core.Consultant) (core.Consultant, error)
		AddRosterEntry(ctx context.Context, r core.RosterEntry) (core.RosterEntry, error)
	}

	// Store is everything the services need from a backend.
	Store interface {
		ProjectReader
		ConsultantReader
		RosterReader
		ForecastStore
		TimesheetStore
		CatalogWriter
	}
)
