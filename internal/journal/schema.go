package journal

// Bookkeeping DDL. Everything lives in a dedicated "migrations"
// namespace so application tables never collide with it.
const (
	createNamespaceSQL = `CREATE SCHEMA IF NOT EXISTS migrations`

	createMigrationsSQL = `CREATE TABLE IF NOT EXISTS migrations._migrations (
    id          SERIAL PRIMARY KEY,
    plugin_name TEXT NOT NULL,
    hash        TEXT NOT NULL,
    created_at  BIGINT NOT NULL
)`

	createJournalSQL = `CREATE TABLE IF NOT EXISTS migrations._journal (
    plugin_name TEXT PRIMARY KEY,
    version     TEXT NOT NULL,
    dialect     TEXT NOT NULL,
    entries     JSONB NOT NULL DEFAULT '[]'::jsonb
)`

	createSnapshotsSQL = `CREATE TABLE IF NOT EXISTS migrations._snapshots (
    id          SERIAL PRIMARY KEY,
    plugin_name TEXT NOT NULL,
    idx         INTEGER NOT NULL,
    snapshot    JSONB NOT NULL,
    created_at  TIMESTAMP NOT NULL DEFAULT NOW(),
    UNIQUE (plugin_name, idx)
)`
)
