package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemanaut/schemanaut/internal/config"
	"github.com/schemanaut/schemanaut/internal/executor"
	"github.com/schemanaut/schemanaut/internal/guard"
	"github.com/schemanaut/schemanaut/internal/service"
	"github.com/schemanaut/schemanaut/internal/sqlgen"
)

const testModuleYAML = `plugin: billing
tables:
  - name: invoices
    columns:
      - name: id
        type: bigserial
        primary_key: true
      - name: amount
        type: numeric(12,2)
        default: "0"
`

// setupTestConfig sets AppConfig for the duration of the test and restores it on cleanup.
func setupTestConfig(t *testing.T, cfg *config.Config) {
	t.Helper()

	old := AppConfig
	AppConfig = cfg

	t.Cleanup(func() { AppConfig = old })
}

func newOutCmd() (*cobra.Command, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetOut(buf)

	return cmd, buf
}

func writeModule(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRunMigrate_noDatabaseURL_returnsError(t *testing.T) { // not parallel: writes global AppConfig
	setupTestConfig(t, config.New())

	cmd, _ := newOutCmd()

	err := runMigrate(cmd, nil)
	require.ErrorIs(t, err, errDatabaseURLRequired)
}

func TestRunPlan_noDatabaseURL_returnsError(t *testing.T) { // not parallel: writes global AppConfig
	setupTestConfig(t, config.New())

	cmd, _ := newOutCmd()

	err := runPlan(cmd, nil)
	require.ErrorIs(t, err, errDatabaseURLRequired)
}

func TestRunStatus_noDatabaseURL_returnsError(t *testing.T) { // not parallel: writes global AppConfig
	setupTestConfig(t, config.New())

	cmd, _ := newOutCmd()

	err := runStatus(cmd, nil)
	require.ErrorIs(t, err, errDatabaseURLRequired)
}

func TestRunMigrate_noModules_finishesWithoutConnecting(t *testing.T) { // not parallel: writes global AppConfig
	cfg := config.New()
	cfg.DatabaseURL = "postgres://unused:5432/db"
	cfg.SchemaDir = t.TempDir()
	setupTestConfig(t, cfg)

	cmd, buf := newOutCmd()

	err := runMigrate(cmd, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No schema modules found.")
	assert.NotContains(t, buf.String(), "Connecting")
}

func TestRunValidate_printsModuleSummary(t *testing.T) { // not parallel: writes global AppConfig
	dir := t.TempDir()
	writeModule(t, dir, "billing.yaml", testModuleYAML)

	cfg := config.New()
	cfg.SchemaDir = dir
	setupTestConfig(t, cfg)

	cmd, buf := newOutCmd()

	err := runValidate(cmd, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "billing: 1 table(s), hash ")
	assert.Contains(t, buf.String(), "1 module(s) valid.")
}

func TestRunValidate_argOverridesConfiguredDir(t *testing.T) { // not parallel: writes global AppConfig
	dir := t.TempDir()
	writeModule(t, dir, "billing.yaml", testModuleYAML)

	cfg := config.New()
	cfg.SchemaDir = "/nonexistent"
	setupTestConfig(t, cfg)

	cmd, buf := newOutCmd()

	err := runValidate(cmd, []string{dir})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "1 module(s) valid.")
}

func TestRunValidate_invalidModule_returnsError(t *testing.T) { // not parallel: writes global AppConfig
	dir := t.TempDir()
	writeModule(t, dir, "broken.yaml", "tables: []")

	cfg := config.New()
	cfg.SchemaDir = dir
	setupTestConfig(t, cfg)

	cmd, _ := newOutCmd()

	err := runValidate(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading schema modules")
}

func TestRenderCompleted_dryRunListsStatements(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	applied, planned := 0, 0

	renderCompleted(buf, service.ProgressEvent{
		Result: &executor.Result{
			PluginName: "billing",
			Status:     executor.StatusPlanned,
			Statements: []sqlgen.Statement{{SQL: "ALTER TABLE invoices ADD COLUMN memo text"}},
		},
	}, &applied, &planned)

	assert.Equal(t, 0, applied)
	assert.Equal(t, 1, planned)
	assert.Contains(t, buf.String(), "would apply 1 statement(s)")
	assert.Contains(t, buf.String(), "ALTER TABLE invoices ADD COLUMN memo text;")
}

func TestRenderCompleted_appliedShowsJournalTag(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	applied, planned := 0, 0

	renderCompleted(buf, service.ProgressEvent{
		Duration: 1500 * time.Millisecond,
		Result: &executor.Result{
			PluginName:  "billing",
			Status:      executor.StatusApplied,
			SequenceIdx: 2,
			Statements:  []sqlgen.Statement{{SQL: "CREATE TABLE invoices (id bigint)"}},
		},
	}, &applied, &planned)

	assert.Equal(t, 1, applied)
	assert.Equal(t, 0, planned)
	assert.Contains(t, buf.String(), "applied 1 statement(s) as 0002_billing (1.5s)")
}

func TestPrintPlan_marksDestructiveStatements(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)

	printPlan(buf, &executor.Result{
		PluginName: "billing",
		Status:     executor.StatusPlanned,
		Statements: []sqlgen.Statement{
			{SQL: "ALTER TABLE invoices ADD COLUMN memo text"},
			{SQL: "ALTER TABLE invoices DROP COLUMN legacy", Destructive: true},
		},
	}, &guard.Report{
		Findings: []guard.Finding{
			{
				Rule:       "data-loss",
				Severity:   guard.Critical,
				Table:      "invoices",
				Message:    "dropping column legacy discards its data",
				Suggestion: "take a backup before applying",
				StmtIndex:  1,
			},
		},
		MaxSeverity: guard.Critical,
	})

	out := buf.String()
	assert.Contains(t, out, "=== billing (2 statement(s)) ===")
	assert.Contains(t, out, "  ALTER TABLE invoices ADD COLUMN memo text;")
	assert.Contains(t, out, "! ALTER TABLE invoices DROP COLUMN legacy;")
	assert.Contains(t, out, "[critical]")
	assert.Contains(t, out, "fix: take a backup before applying")
	assert.Contains(t, out, "1 destructive statement(s); migrate will block without --force.")
}

func TestShortHash(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "cafebabe", shortHash("cafebabe"))
	assert.Equal(t, "0123456789ab", shortHash("0123456789abcdef0123"))
}
