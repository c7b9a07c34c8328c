package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"forecast/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements Store on a local SQLite database.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection also keeps the pragma below in effect.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

// DB exposes the connection pool for stores sharing the database file.
func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (core.Project, error) {
	row, err := r.queries.GetProject(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Project{}, fmt.Errorf("get project: %w", err)
	}
	return projectFromRow(row)
}

func (r *SQLiteRepository) ListProjects(ctx context.Context, limit int) ([]core.Project, error) {
	rows, err := r.queries.ListProjects(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projectsFromRows(rows)
}

func (r *SQLiteRepository) ListProjectsByType(ctx context.Context, projectType string, limit int) ([]core.Project, error) {
	rows, err := r.queries.ListProjectsByType(ctx, projectType, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list projects of type %s: %w", projectType, err)
	}
	return projectsFromRows(rows)
}

func projectsFromRows(rows []ProjectRow) ([]core.Project, error) {
	projects := make([]core.Project, 0, len(rows))
	for _, row := range rows {
		p, err := projectFromRow(row)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

func (r *SQLiteRepository) SaveProject(ctx context.Context, p core.Project) (core.Project, error) {
	if err := p.Validate(); err != nil {
		return core.Project{}, fmt.Errorf("validate project: %w", err)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	err := r.queries.UpsertProject(ctx, ProjectRow{
		ID:          p.ID,
		Name:        p.Name,
		ProjectType: p.Type,
		StartDate:   p.StartDate.String(),
		EndDate:     p.EndDate.String(),
	})
	if err != nil {
		return core.Project{}, fmt.Errorf("save project: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) FindConsultantByUser(ctx context.Context, userID string) (core.Consultant, error) {
	row, err := r.queries.GetConsultantByUser(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Consultant{}, fmt.Errorf("consultant for user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return core.Consultant{}, fmt.Errorf("get consultant by user: %w", err)
	}
	return consultantFromRow(row)
}

func (r *SQLiteRepository) SaveConsultant(ctx context.Context, c core.Consultant) (core.Consultant, error) {
	if strings.TrimSpace(c.Name) == "" {
		return core.Consultant{}, core.ErrEmptyName
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	row := ConsultantRow{
		ID:     c.ID,
		UserID: sql.NullString{String: c.UserID, Valid: c.UserID != ""},
		Name:   c.Name,
	}
	if c.InternalRate.Valid {
		row.InternalRate = sql.NullString{String: c.InternalRate.Decimal.String(), Valid: true}
	}
	if err := r.queries.UpsertConsultant(ctx, row); err != nil {
		return core.Consultant{}, fmt.Errorf("save consultant: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListRosterEntries(ctx context.Context, projectID string) ([]core.RosterEntry, error) {
	rows, err := r.queries.ListRosterEntriesByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list roster entries: %w", err)
	}
	entries := make([]core.RosterEntry, 0, len(rows))
	for _, row := range rows {
		date, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("roster entry %s: %w", row.ID, err)
		}
		consultant, err := consultantFromRow(row.Consultant)
		if err != nil {
			return nil, fmt.Errorf("roster entry %s: %w", row.ID, err)
		}
		entries = append(entries, core.RosterEntry{
			ID:         row.ID,
			Date:       date,
			ProjectID:  row.ProjectID,
			Consultant: consultant,
		})
	}
	return entries, nil
}

func (r *SQLiteRepository) AddRosterEntry(ctx context.Context, e core.RosterEntry) (core.RosterEntry, error) {
	if err := e.Date.Validate(); err != nil {
		return core.RosterEntry{}, fmt.Errorf("validate roster entry: %w", err)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := r.queries.CreateRosterEntry(ctx, e.ID, e.Date.String(), e.ProjectID, e.Consultant.ID); err != nil {
		return core.RosterEntry{}, fmt.Errorf("add roster entry: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListForecastEntries(ctx context.Context, projectID string) ([]core.ForecastEntry, error) {
	rows, err := r.queries.ListForecastEntriesByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list forecast entries: %w", err)
	}
	entries := make([]core.ForecastEntry, 0, len(rows))
	for _, row := range rows {
		t, err := core.ParseForecastType(row.ForecastType)
		if err != nil {
			return nil, fmt.Errorf("forecast entry %s: %w", row.ID, err)
		}
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("forecast entry %s amount %q: %w", row.ID, row.Amount, err)
		}
		entries = append(entries, core.ForecastEntry{
			ID:             row.ID,
			FinancialYear:  int(row.FinancialYear),
			FinancialMonth: int(row.FinancialMonth),
			Type:           t,
			Amount:         amount,
			ProjectID:      row.ProjectID,
		})
	}
	return entries, nil
}

// ReplaceForecastEntries deletes and recreates the editable entries of a
// project inside one transaction, so a failed insert leaves the previous
// forecast in place.
func (r *SQLiteRepository) ReplaceForecastEntries(ctx context.Context, projectID string, entries []core.ForecastEntry) error {
	for i, e := range entries {
		if e.ProjectID != projectID {
			return fmt.Errorf("entry %d belongs to project %q, not %q", i, e.ProjectID, projectID)
		}
		if err := e.Validate(); err != nil {
			return fmt.Errorf("validate entry %d: %w", i, err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	deleted, err := qtx.DeleteForecastEntriesByType(ctx, projectID, core.PlannedCostType.Code(), core.RevenueType.Code())
	if err != nil {
		return fmt.Errorf("delete forecast entries: %w", err)
	}

	for _, e := range entries {
		err := qtx.CreateForecastEntry(ctx, ForecastEntryRow{
			ID:             uuid.NewString(),
			ProjectID:      projectID,
			FinancialYear:  int64(e.FinancialYear),
			FinancialMonth: int64(e.FinancialMonth),
			ForecastType:   e.Type.Code(),
			Amount:         e.Amount.String(),
		})
		if err != nil {
			return fmt.Errorf("create forecast entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit forecast entries: %w", err)
	}

	slog.InfoContext(ctx, "Forecast entries replaced",
		"project_id", projectID,
		"deleted", deleted,
		"created", len(entries))
	return nil
}

func (r *SQLiteRepository) FindTimesheet(ctx context.Context, week core.Date, consultantID string) (core.Timesheet, error) {
	row, err := r.queries.GetTimesheetByWeek(ctx, week.String(), consultantID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Timesheet{}, fmt.Errorf("timesheet %s for %s: %w", week, consultantID, ErrNotFound)
	}
	if err != nil {
		return core.Timesheet{}, fmt.Errorf("get timesheet: %w", err)
	}
	return timesheetFromRow(row)
}

func (r *SQLiteRepository) CreateTimesheet(ctx context.Context, t core.Timesheet) (core.Timesheet, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	err := r.queries.CreateTimesheet(ctx, TimesheetRow{
		ID:           t.ID,
		Week:         t.Week.String(),
		ConsultantID: t.ConsultantID,
	})
	if err != nil {
		return core.Timesheet{}, fmt.Errorf("create timesheet: %w", err)
	}

	slog.InfoContext(ctx, "Timesheet created", "id", t.ID, "week", t.Week.String(), "consultant_id", t.ConsultantID)
	return t, nil
}

func projectFromRow(row ProjectRow) (core.Project, error) {
	start, err := core.ParseDate(row.StartDate)
	if err != nil {
		return core.Project{}, fmt.Errorf("project %s start date: %w", row.ID, err)
	}
	end, err := core.ParseDate(row.EndDate)
	if err != nil {
		return core.Project{}, fmt.Errorf("project %s end date: %w", row.ID, err)
	}
	return core.Project{
		ID:        row.ID,
		Name:      row.Name,
		Type:      row.ProjectType,
		StartDate: start,
		EndDate:   end,
	}, nil
}

func consultantFromRow(row ConsultantRow) (core.Consultant, error) {
	c := core.Consultant{
		ID:     row.ID,
		UserID: row.UserID.String,
		Name:   row.Name,
	}
	if row.InternalRate.Valid && strings.TrimSpace(row.InternalRate.String) != "" {
		rate, err := decimal.NewFromString(row.InternalRate.String)
		if err != nil {
			return core.Consultant{}, fmt.Errorf("consultant %s internal rate %q: %w", row.ID, row.InternalRate.String, err)
		}
		c.InternalRate = decimal.NewNullDecimal(rate)
	}
	return c, nil
}

func timesheetFromRow(row TimesheetRow) (core.Timesheet, error) {
	week, err := core.ParseDate(row.Week)
	if err != nil {
		return core.Timesheet{}, fmt.Errorf("timesheet %s week: %w", row.ID, err)
	}
	return core.Timesheet{ID: row.ID, Week: week, ConsultantID: row.ConsultantID}, nil
}
