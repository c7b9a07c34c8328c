package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	flagFiscalStart, flagBackend, flagDBPath, flagSeedFile = 0, "", "", ""
	t.Setenv("FISCAL_START_MONTH", "")
	t.Setenv("DATA_BACKEND", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestFiscalCommand(t *testing.T) {
	out, err := run(t, "fiscal", "2019-01-15")
	require.NoError(t, err)
	require.Equal(t, "FY2019 month 7\n", out)

	out, err = run(t, "fiscal", "--fiscal-start", "1", "2019-01-15")
	require.NoError(t, err)
	require.Equal(t, "FY2019 month 1\n", out)
}

func TestMonthsCommand(t *testing.T) {
	out, err := run(t, "months", "2018-11-15", "2019-02-10")
	require.NoError(t, err)
	for _, label := range []string{"Nov 2018", "Dec 2018", "Jan 2019", "Feb 2019"} {
		require.Contains(t, out, label)
	}
	require.NotContains(t, out, "Mar 2019")
}

func TestMonthsCommandRejectsBadDate(t *testing.T) {
	_, err := run(t, "months", "2018-13-01", "2019-02-10")
	require.Error(t, err)
}

func TestMatrixAndTimesheetOnSeededMemoryBackend(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(seed, []byte(`{
		"projects": [{"id":"p1","name":"Apollo","type":"3","startDate":"2018-12-01","endDate":"2019-01-31"}],
		"consultants": [{"id":"c1","userId":"u1","name":"Ada","internalRate":"100"}],
		"roster": [{"date":"2018-12-03","projectId":"p1","consultantId":"c1"}]
	}`), 0o600))

	out, err := run(t, "matrix", "--backend", "memory", "--seed", seed, "-p", "p1")
	require.NoError(t, err)
	require.Contains(t, out, "Apollo")
	require.Contains(t, out, "Dec 2018")
	require.Contains(t, out, "100.00")

	out, err = run(t, "timesheet", "--backend", "memory", "--seed", seed, "-u", "u1", "--date", "2019-01-06")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "week of 2019-01-07: TimesheetDetailsPage recordId="), out)

	_, err = run(t, "timesheet", "--backend", "memory", "--seed", seed, "-u", "nobody")
	require.Error(t, err)
}

func TestMigrateAndSeedSQLite(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "forecast.db")
	seed := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(seed, []byte(`{
		"projects": [{"id":"p1","name":"Apollo","type":"3","startDate":"2018-12-01","endDate":"2019-01-31"}]
	}`), 0o600))

	out, err := run(t, "migrate", "--db", db)
	require.NoError(t, err)
	require.Contains(t, out, "schema version")

	out, err = run(t, "seed", "--db", db, seed)
	require.NoError(t, err)
	require.Contains(t, out, "seeded")

	out, err = run(t, "matrix", "--backend", "sqlite", "--db", db, "-p", "p1")
	require.NoError(t, err)
	require.Contains(t, out, "Jan 2019")
}
