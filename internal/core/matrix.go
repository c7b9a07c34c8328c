package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

type (
	// Cell is one amount of the forecast matrix.
	Cell struct {
		Key            EntryKey
		Category       Category
		Bucket         MonthBucket
		FinancialYear  int
		FinancialMonth int
		ProjectID      string
		Amount         decimal.Decimal
	}

	// Row is a matrix row laid out over the project months.
	Row struct {
		Category Category
		Editable bool
		Margin   bool
		Cells    []Cell
	}

	// Matrix holds the in-memory forecast of one project. Margin rows are
	// recomputed after every mutation.
	Matrix struct {
		mu        sync.RWMutex
		projectID string
		calendar  FiscalCalendar
		months    []MonthBucket
		cells     map[EntryKey]Cell
	}
)

// BuildMatrix aggregates roster cost and stored forecast entries over the
// given months and derives the margin rows.
func BuildMatrix(projectID string, months []MonthBucket, roster []RosterEntry, entries []ForecastEntry, cal FiscalCalendar) (*Matrix, error) {
	m := &Matrix{
		projectID: projectID,
		calendar:  cal,
		months:    append([]MonthBucket(nil), months...),
		cells:     make(map[EntryKey]Cell, len(months)*len(Categories())),
	}

	for _, r := range roster {
		b := BucketOf(r.Date.Time)
		key := b.Key(CostFromRoster)
		c, ok := m.cells[key]
		if !ok {
			c = m.newCell(b, CostFromRoster)
		}
		c.Amount = c.Amount.Add(r.Rate())
		m.cells[key] = c
	}

	for _, e := range entries {
		cat, err := e.Type.Category()
		if err != nil {
			return nil, fmt.Errorf("forecast entry %s: %w", e.ID, err)
		}
		b := cal.ToCalendar(e.FinancialYear, e.FinancialMonth)
		c := m.newCell(b, cat)
		c.Amount = e.Amount
		if e.ProjectID != "" {
			c.ProjectID = e.ProjectID
		}
		m.cells[c.Key] = c
	}

	m.recomputeMargins()
	return m, nil
}

func (m *Matrix) newCell(b MonthBucket, c Category) Cell {
	fy, fm := m.calendar.ToFinancial(b)
	return Cell{
		Key:            b.Key(c),
		Category:       c,
		Bucket:         b,
		FinancialYear:  fy,
		FinancialMonth: fm,
		ProjectID:      m.projectID,
		Amount:         decimal.Zero,
	}
}

// amount returns the amount of a cell, zero when the cell is missing.
// Callers hold the lock.
func (m *Matrix) amount(b MonthBucket, c Category) decimal.Decimal {
	if cell, ok := m.cells[b.Key(c)]; ok {
		return cell.Amount
	}
	return decimal.Zero
}

// recomputeMargins overwrites both margin rows for every project month.
// Callers hold the write lock.
func (m *Matrix) recomputeMargins() {
	for _, b := range m.months {
		revenue := m.amount(b, Revenue)

		planned := m.newCell(b, PlannedMargin)
		planned.Amount = revenue.Sub(m.amount(b, PlannedCost))
		m.cells[planned.Key] = planned

		actual := m.newCell(b, ActualMargin)
		actual.Amount = revenue.Sub(m.amount(b, CostFromRoster))
		m.cells[actual.Key] = actual
	}
}

// SetCell replaces an editable cell with the parsed amount and recomputes
// the margins. Input that is not a number leaves the matrix untouched.
func (m *Matrix) SetCell(b MonthBucket, c Category, raw string) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if !c.Editable() {
		return fmt.Errorf("%w: %s", ErrNotEditable, c)
	}
	amount, err := ParseAmount(raw)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cell := m.newCell(b, c)
	cell.Amount = amount
	m.cells[cell.Key] = cell
	m.recomputeMargins()
	return nil
}

// ProjectID returns the project the matrix belongs to.
func (m *Matrix) ProjectID() string {
	return m.projectID
}

// Calendar returns the fiscal calendar used to key stored entries.
func (m *Matrix) Calendar() FiscalCalendar {
	return m.calendar
}

// Months returns a copy of the project months.
func (m *Matrix) Months() []MonthBucket {
	return append([]MonthBucket(nil), m.months...)
}

// Cell returns the cell of category c in month b.
func (m *Matrix) Cell(b MonthBucket, c Category) (Cell, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cell, ok := m.cells[b.Key(c)]
	return cell, ok
}

// Amount returns the amount of category c in month b, zero when empty.
func (m *Matrix) Amount(b MonthBucket, c Category) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.amount(b, c)
}

// Snapshot returns a copy of every cell keyed by EntryKey.
func (m *Matrix) Snapshot() map[EntryKey]Cell {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[EntryKey]Cell, len(m.cells))
	for k, v := range m.cells {
		out[k] = v
	}
	return out
}

// EditableEntries returns the cells that are persisted, as forecast entries
// ordered by key. Roster cost and margins are never included.
func (m *Matrix) EditableEntries() []ForecastEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.cells))
	for k, c := range m.cells {
		if c.Category.Editable() {
			keys = append(keys, string(k))
		}
	}
	sort.Strings(keys)

	out := make([]ForecastEntry, 0, len(keys))
	for _, k := range keys {
		c := m.cells[EntryKey(k)]
		t, _ := c.Category.ForecastType()
		out = append(out, ForecastEntry{
			FinancialYear:  c.FinancialYear,
			FinancialMonth: c.FinancialMonth,
			Type:           t,
			Amount:         c.Amount,
			ProjectID:      m.projectID,
		})
	}
	return out
}

// Rows lays the matrix out in display order with one cell per project month.
// Empty cells are zero.
func (m *Matrix) Rows() []Row {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]Row, 0, len(Categories()))
	for _, c := range Categories() {
		row := Row{Category: c, Editable: c.Editable(), Margin: c.Margin()}
		for _, b := range m.months {
			cell, ok := m.cells[b.Key(c)]
			if !ok {
				cell = m.newCell(b, c)
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
	}
	return rows
}
