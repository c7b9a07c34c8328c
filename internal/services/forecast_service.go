package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"forecast/internal/amqp"
	"forecast/internal/cache"
	"forecast/internal/core"
	"forecast/internal/preferences"
	"forecast/internal/storage"
)

const (
	projectListLimit  = 10000
	defaultDraftSize  = 256
	defaultDraftTTL   = 2 * time.Hour
	publishTimeout    = 10 * time.Second
	draftKeySeparator = "|"
)

var (
	ErrNoProjectSelected = errors.New("no project selected")
	ErrProjectNotFound   = errors.New("project not found")
	ErrNotFixedPrice     = errors.New("project is not fixed price")
	ErrMonthOutOfRange   = errors.New("month outside the project period")
	// ErrDraftExpired means the user has no open draft for the project and
	// must reload it before editing again.
	ErrDraftExpired      = errors.New("forecast draft expired, reload the project")
)

// Publisher announces saved forecasts.
type Publisher interface {
	PublishForecastSaved(ctx context.Context, msg *amqp.ForecastSavedMessage) error
}

// ProjectOption is an entry of the project picker.
type ProjectOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ForecastService owns the editable forecast drafts. A draft is the matrix
// a user is working on for a project; it lives in the draft cache until it
// is saved, replaced by a fresh load, or expires.
type ForecastService struct {
	store     storage.Store
	prefs     preferences.Store
	drafts    *cache.LRUCache[*core.Matrix]
	publisher Publisher
	calendar  core.FiscalCalendar
}

// NewForecastService wires the service. drafts and publisher may be nil.
func NewForecastService(store storage.Store, prefs preferences.Store, drafts *cache.LRUCache[*core.Matrix], publisher Publisher, cal core.FiscalCalendar) *ForecastService {
	if drafts == nil {
		drafts = cache.NewLRUCache[*core.Matrix](defaultDraftSize, defaultDraftTTL)
	}
	return &ForecastService{
		store:     store,
		prefs:     prefs,
		drafts:    drafts,
		publisher: publisher,
		calendar:  cal,
	}
}

func draftKey(userID, projectID string) string {
	return userID + draftKeySeparator + projectID
}

// Calendar returns the fiscal calendar used for stored entries.
func (s *ForecastService) Calendar() core.FiscalCalendar {
	return s.calendar
}

// ProjectOptions lists the Fixed Price projects a user can pick.
func (s *ForecastService) ProjectOptions(ctx context.Context) ([]ProjectOption, error) {
	projects, err := s.store.ListProjectsByType(ctx, core.FixedPriceProject, projectListLimit)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	options := make([]ProjectOption, 0, len(projects))
	for _, p := range projects {
		options = append(options, ProjectOption{ID: p.ID, Label: p.Name})
	}
	return options, nil
}

// Open returns the draft for the project the user last selected.
func (s *ForecastService) Open(ctx context.Context, userID string) (*core.Matrix, error) {
	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	projectID := prefs.ProjectID()
	if projectID == "" {
		return nil, ErrNoProjectSelected
	}
	return s.Draft(ctx, userID, projectID)
}

// SelectProject loads a fresh matrix for the project, makes it the user's
// draft and remembers the choice.
func (s *ForecastService) SelectProject(ctx context.Context, userID, projectID string) (*core.Matrix, error) {
	m, err := s.Load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	s.drafts.Set(draftKey(userID, projectID), m)

	if err := s.prefs.Set(ctx, userID, preferences.Preferences{preferences.KeyProjectID: projectID}); err != nil {
		return nil, fmt.Errorf("store selected project: %w", err)
	}

	slog.InfoContext(ctx, "Project selected", "user_id", userID, "project_id", projectID, "months", len(m.Months()))
	return m, nil
}

// Load builds the matrix of a project from storage. Roster and stored
// entries are fetched concurrently.
func (s *ForecastService) Load(ctx context.Context, projectID string) (*core.Matrix, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if !project.IsFixedPrice() {
		return nil, fmt.Errorf("%w: %s", ErrNotFixedPrice, project.Name)
	}

	var (
		roster  []core.RosterEntry
		entries []core.ForecastEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		roster, err = s.store.ListRosterEntries(gctx, projectID)
		if err != nil {
			return fmt.Errorf("load roster: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		entries, err = s.store.ListForecastEntries(gctx, projectID)
		if err != nil {
			return fmt.Errorf("load forecast entries: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	months := core.Months(project.StartDate.Time, project.EndDate.Time)
	m, err := core.BuildMatrix(projectID, months, roster, entries, s.calendar)
	if err != nil {
		return nil, fmt.Errorf("build matrix: %w", err)
	}

	slog.DebugContext(ctx, "Forecast loaded",
		"project_id", projectID,
		"months", len(months),
		"roster_entries", len(roster),
		"forecast_entries", len(entries))
	return m, nil
}

// Draft returns the user's working matrix, loading it on first use.
func (s *ForecastService) Draft(ctx context.Context, userID, projectID string) (*core.Matrix, error) {
	return s.drafts.GetOrLoad(draftKey(userID, projectID), func() (*core.Matrix, error) {
		return s.Load(ctx, projectID)
	})
}

// openDraft returns the draft the user already has. Unlike Draft it never
// reloads from storage, so edits made to a lost draft are not replaced by
// the stored state without the user knowing.
func (s *ForecastService) openDraft(userID, projectID string) (*core.Matrix, error) {
	m, ok := s.drafts.Get(draftKey(userID, projectID))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDraftExpired, projectID)
	}
	return m, nil
}

// EditCell applies raw to an editable cell of the user's open draft. Input
// that is not a number returns core.ErrInvalidAmount and leaves the draft as
// it was. Without an open draft it returns ErrDraftExpired.
func (s *ForecastService) EditCell(ctx context.Context, userID, projectID string, year, month int, category, raw string) (*core.Matrix, error) {
	cat, err := core.ParseCategory(category)
	if err != nil {
		return nil, err
	}
	m, err := s.openDraft(userID, projectID)
	if err != nil {
		return nil, err
	}

	b := core.MonthBucket{Year: year, Month: month}
	if !containsBucket(m.Months(), b) {
		return m, fmt.Errorf("%w: %s", ErrMonthOutOfRange, b)
	}
	if err := m.SetCell(b, cat, raw); err != nil {
		return m, err
	}

	slog.DebugContext(ctx, "Forecast cell edited",
		"user_id", userID,
		"project_id", projectID,
		"key", string(b.Key(cat)),
		"value", strings.TrimSpace(raw))
	return m, nil
}

func containsBucket(months []core.MonthBucket, b core.MonthBucket) bool {
	for _, m := range months {
		if m == b {
			return true
		}
	}
	return false
}

// Save replaces the project's stored Planned Cost and Revenue entries with
// the draft's editable cells. Publishing the saved event is best effort.
// Without an open draft it returns ErrDraftExpired and stores nothing.
func (s *ForecastService) Save(ctx context.Context, userID, projectID string) (*core.Matrix, error) {
	m, err := s.openDraft(userID, projectID)
	if err != nil {
		slog.WarnContext(ctx, "Save without an open draft", "project_id", projectID, "user_id", userID)
		return nil, err
	}

	entries := m.EditableEntries()
	if err := s.store.ReplaceForecastEntries(ctx, projectID, entries); err != nil {
		slog.ErrorContext(ctx, "Failed to save forecast", "project_id", projectID, "user_id", userID, "error", err)
		return nil, fmt.Errorf("save forecast: %w", err)
	}

	// Other users' drafts of this project are now stale.
	mine := draftKey(userID, projectID)
	s.drafts.DeleteFunc(func(key string) bool {
		return key != mine && strings.HasSuffix(key, draftKeySeparator+projectID)
	})

	slog.InfoContext(ctx, "Forecast saved", "project_id", projectID, "user_id", userID, "entries", len(entries))

	s.publishSaved(ctx, userID, projectID, entries)
	return m, nil
}

func (s *ForecastService) publishSaved(ctx context.Context, userID, projectID string, entries []core.ForecastEntry) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping forecast saved event", "project_id", projectID)
		return
	}

	saved := make([]amqp.SavedEntry, 0, len(entries))
	for _, e := range entries {
		saved = append(saved, amqp.SavedEntry{
			FinancialYear:  e.FinancialYear,
			FinancialMonth: e.FinancialMonth,
			Type:           e.Type.Code(),
			Amount:         e.Amount.String(),
		})
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishForecastSaved(pctx, amqp.NewForecastSavedMessage(projectID, userID, saved)); err != nil {
		slog.WarnContext(ctx, "Failed to publish forecast saved event", "project_id", projectID, "error", err)
	}
}

// Discard drops the user's draft so the next access reloads from storage.
func (s *ForecastService) Discard(userID, projectID string) {
	s.drafts.Delete(draftKey(userID, projectID))
}
