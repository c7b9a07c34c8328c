package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type ProjectRow struct {
	ID          string
	Name        string
	ProjectType string
	StartDate   string
	EndDate     string
}

type ConsultantRow struct {
	ID           string
	UserID       sql.NullString
	Name         string
	InternalRate sql.NullString
}

type RosterRow struct {
	ID           string
	Date         string
	ProjectID    string
	ConsultantID string
	Consultant   ConsultantRow
}

type ForecastEntryRow struct {
	ID             string
	ProjectID      string
	FinancialYear  int64
	FinancialMonth int64
	ForecastType   string
	Amount         string
}

type TimesheetRow struct {
	ID           string
	Week         string
	ConsultantID string
}

const getProject = `SELECT id, name, project_type, start_date, end_date FROM projects WHERE id = ?`

func (q *Queries) GetProject(ctx context.Context, id string) (ProjectRow, error) {
	row := q.db.QueryRowContext(ctx, getProject, id)
	var i ProjectRow
	err := row.Scan(&i.ID, &i.Name, &i.ProjectType, &i.StartDate, &i.EndDate)
	return i, err
}

const listProjects = `SELECT id, name, project_type, start_date, end_date FROM projects ORDER BY name, id LIMIT ?`

func (q *Queries) ListProjects(ctx context.Context, limit int64) ([]ProjectRow, error) {
	rows, err := q.db.QueryContext(ctx, listProjects, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProjectRow
	for rows.Next() {
		var i ProjectRow
		if err := rows.Scan(&i.ID, &i.Name, &i.ProjectType, &i.StartDate, &i.EndDate); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listProjectsByType = `SELECT id, name, project_type, start_date, end_date FROM projects
WHERE project_type = ? ORDER BY name, id LIMIT ?`

func (q *Queries) ListProjectsByType(ctx context.Context, projectType string, limit int64) ([]ProjectRow, error) {
	rows, err := q.db.QueryContext(ctx, listProjectsByType, projectType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProjectRow
	for rows.Next() {
		var i ProjectRow
		if err := rows.Scan(&i.ID, &i.Name, &i.ProjectType, &i.StartDate, &i.EndDate); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const upsertProject = `INSERT INTO projects (id, name, project_type, start_date, end_date)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    project_type = excluded.project_type,
    start_date = excluded.start_date,
    end_date = excluded.end_date`

func (q *Queries) UpsertProject(ctx context.Context, arg ProjectRow) error {
	_, err := q.db.ExecContext(ctx, upsertProject, arg.ID, arg.Name, arg.ProjectType, arg.StartDate, arg.EndDate)
	return err
}

const getConsultantByUser = `SELECT id, user_id, name, internal_rate FROM consultants WHERE user_id = ? LIMIT 1`

func (q *Queries) GetConsultantByUser(ctx context.Context, userID string) (ConsultantRow, error) {
	row := q.db.QueryRowContext(ctx, getConsultantByUser, userID)
	var i ConsultantRow
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.InternalRate)
	return i, err
}

const upsertConsultant = `INSERT INTO consultants (id, user_id, name, internal_rate)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    user_id = excluded.user_id,
    name = excluded.name,
    internal_rate = excluded.internal_rate`

func (q *Queries) UpsertConsultant(ctx context.Context, arg ConsultantRow) error {
	_, err := q.db.ExecContext(ctx, upsertConsultant, arg.ID, arg.UserID, arg.Name, arg.InternalRate)
	return err
}

const listRosterEntriesByProject = `SELECT r.id, r.date, r.project_id, r.consultant_id,
       c.id, c.user_id, c.name, c.internal_rate
FROM roster_entries r
JOIN consultants c ON c.id = r.consultant_id
WHERE r.project_id = ?
ORDER BY r.date, r.id`

func (q *Queries) ListRosterEntriesByProject(ctx context.Context, projectID string) ([]RosterRow, error) {
	rows, err := q.db.QueryContext(ctx, listRosterEntriesByProject, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RosterRow
	for rows.Next() {
		var i RosterRow
		if err := rows.Scan(
			&i.ID, &i.Date, &i.ProjectID, &i.ConsultantID,
			&i.Consultant.ID, &i.Consultant.UserID, &i.Consultant.Name, &i.Consultant.InternalRate,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createRosterEntry = `INSERT INTO roster_entries (id, date, project_id, consultant_id) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateRosterEntry(ctx context.Context, id, date, projectID, consultantID string) error {
	_, err := q.db.ExecContext(ctx, createRosterEntry, id, date, projectID, consultantID)
	return err
}

const listForecastEntriesByProject = `SELECT id, project_id, financial_year, financial_month, forecast_type, amount
FROM forecast_entries
WHERE project_id = ?
ORDER BY financial_year, financial_month, forecast_type`

func (q *Queries) ListForecastEntriesByProject(ctx context.Context, projectID string) ([]ForecastEntryRow, error) {
	rows, err := q.db.QueryContext(ctx, listForecastEntriesByProject, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ForecastEntryRow
	for rows.Next() {
		var i ForecastEntryRow
		if err := rows.Scan(&i.ID, &i.ProjectID, &i.FinancialYear, &i.FinancialMonth, &i.ForecastType, &i.Amount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteForecastEntriesByType = `DELETE FROM forecast_entries WHERE project_id = ? AND forecast_type IN (?, ?)`

func (q *Queries) DeleteForecastEntriesByType(ctx context.Context, projectID, typeA, typeB string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteForecastEntriesByType, projectID, typeA, typeB)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createForecastEntry = `INSERT INTO forecast_entries (id, project_id, financial_year, financial_month, forecast_type, amount)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateForecastEntry(ctx context.Context, arg ForecastEntryRow) error {
	_, err := q.db.ExecContext(ctx, createForecastEntry,
		arg.ID, arg.ProjectID, arg.FinancialYear, arg.FinancialMonth, arg.ForecastType, arg.Amount)
	return err
}

const getTimesheetByWeek = `SELECT id, week, consultant_id FROM timesheets WHERE week = ? AND consultant_id = ? LIMIT 1`

func (q *Queries) GetTimesheetByWeek(ctx context.Context, week, consultantID string) (TimesheetRow, error) {
	row := q.db.QueryRowContext(ctx, getTimesheetByWeek, week, consultantID)
	var i TimesheetRow
	err := row.Scan(&i.ID, &i.Week, &i.ConsultantID)
	return i, err
}

const createTimesheet = `INSERT INTO timesheets (id, week, consultant_id) VALUES (?, ?, ?)`

func (q *Queries) CreateTimesheet(ctx context.Context, arg TimesheetRow) error {
	_, err := q.db.ExecContext(ctx, createTimesheet, arg.ID, arg.Week, arg.ConsultantID)
	return err
}
