package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"forecast/internal/core"
	"forecast/internal/storage"
)

const (
	// NotAuthorizedMessage is shown to users without a consultant record.
	NotAuthorizedMessage = "You are not authorized to Timesheets"

	TimesheetScreen = "TimesheetDetailsPage"
	ParamRecordID   = "recordId"
)

var ErrNotAuthorized = errors.New("user is not a consultant")

// Navigation tells the client which screen to open and with what parameters.
type Navigation struct {
	Screen string            `json:"screen"`
	Params map[string]string `json:"params"`
}

// TimesheetNavigator resolves the current user's timesheet for this week,
// creating it on first access.
type TimesheetNavigator struct {
	consultants storage.ConsultantReader
	timesheets  storage.TimesheetStore
}

func NewTimesheetNavigator(consultants storage.ConsultantReader, timesheets storage.TimesheetStore) *TimesheetNavigator {
	return &TimesheetNavigator{consultants: consultants, timesheets: timesheets}
}

// WeekOf returns the Monday of the Sunday-first week containing t, so a
// Sunday maps to the day after.
func WeekOf(t time.Time) core.Date {
	offset := int(time.Monday) - int(t.Weekday())
	d := t.AddDate(0, 0, offset)
	return core.NewDate(d.Year(), int(d.Month()), d.Day())
}

func (n *TimesheetNavigator) CurrentTimesheet(ctx context.Context, userID string, now time.Time) (Navigation, error) {
	consultant, err := n.consultants.FindConsultantByUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return Navigation{}, ErrNotAuthorized
	}
	if err != nil {
		return Navigation{}, fmt.Errorf("find consultant: %w", err)
	}

	week := WeekOf(now)
	ts, err := n.timesheets.FindTimesheet(ctx, week, consultant.ID)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		ts, err = n.create(ctx, week, consultant.ID)
		if err != nil {
			return Navigation{}, err
		}
	default:
		return Navigation{}, fmt.Errorf("find timesheet: %w", err)
	}

	return Navigation{
		Screen: TimesheetScreen,
		Params: map[string]string{ParamRecordID: ts.ID},
	}, nil
}

// create inserts the timesheet. A concurrent request may have created it
// first, in which case the existing one is returned.
func (n *TimesheetNavigator) create(ctx context.Context, week core.Date, consultantID string) (core.Timesheet, error) {
	ts, err := n.timesheets.CreateTimesheet(ctx, core.Timesheet{Week: week, ConsultantID: consultantID})
	if err == nil {
		slog.InfoContext(ctx, "Created timesheet", "week", week.String(), "consultant_id", consultantID, "timesheet_id", ts.ID)
		return ts, nil
	}

	existing, ferr := n.timesheets.FindTimesheet(ctx, week, consultantID)
	if ferr != nil {
		return core.Timesheet{}, fmt.Errorf("create timesheet: %w", err)
	}
	return existing, nil
}
