package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"forecast/internal/core"
	"forecast/internal/storage"
)

// Store keeps the whole catalogue and forecast in maps. It is used for local
// development and tests.
type Store struct {
	mu          sync.Mutex
	projects    map[string]core.Project
	consultants map[string]core.Consultant
	roster      []core.RosterEntry
	forecast    map[string][]core.ForecastEntry
	timesheets  map[string]core.Timesheet
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		projects:    map[string]core.Project{},
		consultants: map[string]core.Consultant{},
		forecast:    map[string][]core.ForecastEntry{},
		timesheets:  map[string]core.Timesheet{},
	}
}

func (s *Store) GetProject(_ context.Context, id string) (core.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return core.Project{}, fmt.Errorf("project %s: %w", id, storage.ErrNotFound)
	}
	return p, nil
}

func (s *Store) ListProjects(_ context.Context, limit int) ([]core.Project, error) {
	return s.listProjects(func(core.Project) bool { return true }, limit), nil
}

func (s *Store) ListProjectsByType(_ context.Context, projectType string, limit int) ([]core.Project, error) {
	return s.listProjects(func(p core.Project) bool { return p.Type == projectType }, limit), nil
}

func (s *Store) listProjects(keep func(core.Project) bool, limit int) []core.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *Store) SaveProject(_ context.Context, p core.Project) (core.Project, error) {
	if err := p.Validate(); err != nil {
		return core.Project{}, fmt.Errorf("validate project: %w", err)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
	return p, nil
}

func (s *Store) FindConsultantByUser(_ context.Context, userID string) (core.Consultant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.consultants {
		if userID != "" && c.UserID == userID {
			return c, nil
		}
	}
	return core.Consultant{}, fmt.Errorf("consultant for user %s: %w", userID, storage.ErrNotFound)
}

func (s *Store) SaveConsultant(_ context.Context, c core.Consultant) (core.Consultant, error) {
	if strings.TrimSpace(c.Name) == "" {
		return core.Consultant{}, core.ErrEmptyName
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consultants[c.ID] = c
	return c, nil
}

func (s *Store) ListRosterEntries(_ context.Context, projectID string) ([]core.RosterEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.RosterEntry
	for _, r := range s.roster {
		if r.ProjectID != projectID {
			continue
		}
		// Pick up rate changes made after the entry was added.
		if c, ok := s.consultants[r.Consultant.ID]; ok {
			r.Consultant = c
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

func (s *Store) AddRosterEntry(_ context.Context, r core.RosterEntry) (core.RosterEntry, error) {
	if err := r.Date.Validate(); err != nil {
		return core.RosterEntry{}, fmt.Errorf("validate roster entry: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[r.ProjectID]; !ok {
		return core.RosterEntry{}, fmt.Errorf("project %s: %w", r.ProjectID, storage.ErrNotFound)
	}
	if _, ok := s.consultants[r.Consultant.ID]; !ok {
		return core.RosterEntry{}, fmt.Errorf("consultant %s: %w", r.Consultant.ID, storage.ErrNotFound)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.roster = append(s.roster, r)
	return r, nil
}

func (s *Store) ListForecastEntries(_ context.Context, projectID string) ([]core.ForecastEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ForecastEntry(nil), s.forecast[projectID]...), nil
}

// ReplaceForecastEntries validates the whole batch before swapping it in, so
// a bad entry leaves the stored forecast untouched.
func (s *Store) ReplaceForecastEntries(_ context.Context, projectID string, entries []core.ForecastEntry) error {
	next := make([]core.ForecastEntry, 0, len(entries))
	for i, e := range entries {
		if e.ProjectID != projectID {
			return fmt.Errorf("entry %d belongs to project %q, not %q", i, e.ProjectID, projectID)
		}
		if err := e.Validate(); err != nil {
			return fmt.Errorf("validate entry %d: %w", i, err)
		}
		e.ID = uuid.NewString()
		next = append(next, e)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []core.ForecastEntry
	for _, e := range s.forecast[projectID] {
		if e.Type != core.PlannedCostType && e.Type != core.RevenueType {
			kept = append(kept, e)
		}
	}
	s.forecast[projectID] = append(kept, next...)
	return nil
}

func timesheetKey(week core.Date, consultantID string) string {
	return week.String() + "|" + consultantID
}

func (s *Store) FindTimesheet(_ context.Context, week core.Date, consultantID string) (core.Timesheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timesheets[timesheetKey(week, consultantID)]
	if !ok {
		return core.Timesheet{}, fmt.Errorf("timesheet %s for %s: %w", week, consultantID, storage.ErrNotFound)
	}
	return t, nil
}

func (s *Store) CreateTimesheet(_ context.Context, t core.Timesheet) (core.Timesheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := timesheetKey(t.Week, t.ConsultantID)
	if _, ok := s.timesheets[key]; ok {
		return core.Timesheet{}, fmt.Errorf("timesheet %s for %s already exists", t.Week, t.ConsultantID)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.timesheets[key] = t
	return t, nil
}

// Seed is the JSON document accepted by LoadSeed.
type Seed struct {
	Projects []struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Type      string `json:"type"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	} `json:"projects"`
	Consultants []struct {
		ID           string `json:"id"`
		UserID       string `json:"userId"`
		Name         string `json:"name"`
		InternalRate string `json:"internalRate"`
	} `json:"consultants"`
	Roster []struct {
		Date         string `json:"date"`
		ProjectID    string `json:"projectId"`
		ConsultantID string `json:"consultantId"`
	} `json:"roster"`
}

// LoadSeed reads a JSON seed file and writes its content through w. Projects
// and consultants keep the ids given in the file so roster lines can refer
// to them.
func LoadSeed(ctx context.Context, path string, w storage.CatalogWriter) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("decode seed file: %w", err)
	}

	for _, sp := range seed.Projects {
		start, err := core.ParseDate(sp.StartDate)
		if err != nil {
			return fmt.Errorf("project %q: %w", sp.Name, err)
		}
		end, err := core.ParseDate(sp.EndDate)
		if err != nil {
			return fmt.Errorf("project %q: %w", sp.Name, err)
		}
		if _, err := w.SaveProject(ctx, core.Project{ID: sp.ID, Name: sp.Name, Type: sp.Type, StartDate: start, EndDate: end}); err != nil {
			return fmt.Errorf("seed project %q: %w", sp.Name, err)
		}
	}

	consultants := make(map[string]core.Consultant, len(seed.Consultants))
	for _, sc := range seed.Consultants {
		c := core.Consultant{ID: sc.ID, UserID: sc.UserID, Name: sc.Name}
		if strings.TrimSpace(sc.InternalRate) != "" {
			rate, err := decimal.NewFromString(sc.InternalRate)
			if err != nil {
				return fmt.Errorf("consultant %q rate: %w", sc.Name, err)
			}
			c.InternalRate = decimal.NewNullDecimal(rate)
		}
		saved, err := w.SaveConsultant(ctx, c)
		if err != nil {
			return fmt.Errorf("seed consultant %q: %w", sc.Name, err)
		}
		consultants[saved.ID] = saved
	}

	for i, sr := range seed.Roster {
		d, err := core.ParseDate(sr.Date)
		if err != nil {
			return fmt.Errorf("roster line %d: %w", i, err)
		}
		c, ok := consultants[sr.ConsultantID]
		if !ok {
			c = core.Consultant{ID: sr.ConsultantID}
		}
		if _, err := w.AddRosterEntry(ctx, core.RosterEntry{Date: d, ProjectID: sr.ProjectID, Consultant: c}); err != nil {
			return fmt.Errorf("seed roster line %d: %w", i, err)
		}
	}
	return nil
}
