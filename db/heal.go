package db

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/lorekeep/lorekeep/errors"
	"github.com/lorekeep/lorekeep/internal/slug"
)

// columnSpec is a column introduced after a table's baseline shape.
// The definition must carry a constant default so ALTER TABLE is valid on
// stores created by any historical version.
type columnSpec struct {
	name       string
	definition string
}

// tableSpec declares the required shape of one table: the baseline CREATE
// statement, the columns added since, and the indexes that must exist.
type tableSpec struct {
	name     string
	baseline string
	added    []columnSpec
	indexes  []string
}

// schema lists every table a world store must have. Order matters only for
// foreign key readability; healing each table is independent.
var schema = []tableSpec{
	{
		name: "schema_heal_log",
		baseline: `CREATE TABLE IF NOT EXISTS schema_heal_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			table_name TEXT NOT NULL,
			change TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	{
		name: "folders",
		baseline: `CREATE TABLE IF NOT EXISTS folders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			parent_id INTEGER REFERENCES folders(id),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		added: []columnSpec{
			{"slug", "slug TEXT NOT NULL DEFAULT ''"},
			{"kind", "kind TEXT NOT NULL DEFAULT ''"},
			{"deleted", "deleted INTEGER NOT NULL DEFAULT 0"},
			{"deleted_at", "deleted_at TIMESTAMP"},
		},
		indexes: []string{
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_folders_slug ON folders(slug) WHERE slug != ''",
			"CREATE INDEX IF NOT EXISTS idx_folders_parent ON folders(parent_id) WHERE deleted = 0",
		},
	},
	{
		name: "attribute_templates",
		baseline: `CREATE TABLE IF NOT EXISTS attribute_templates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			folder_id INTEGER NOT NULL REFERENCES folders(id),
			name TEXT NOT NULL,
			value_type TEXT NOT NULL,
			default_value TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		added: []columnSpec{
			{"options", "options TEXT NOT NULL DEFAULT '[]'"},
			{"required", "required INTEGER NOT NULL DEFAULT 0"},
			{"display_order", "display_order INTEGER NOT NULL DEFAULT 0"},
			{"is_global", "is_global INTEGER NOT NULL DEFAULT 0"},
			{"deleted", "deleted INTEGER NOT NULL DEFAULT 0"},
			{"deleted_at", "deleted_at TIMESTAMP"},
		},
		indexes: []string{
			"CREATE INDEX IF NOT EXISTS idx_templates_folder ON attribute_templates(folder_id) WHERE deleted = 0",
			"CREATE INDEX IF NOT EXISTS idx_templates_global ON attribute_templates(is_global) WHERE deleted = 0",
		},
	},
	{
		name: "entities",
		baseline: `CREATE TABLE IF NOT EXISTS entities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			folder_id INTEGER NOT NULL REFERENCES folders(id),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		added: []columnSpec{
			{"slug", "slug TEXT NOT NULL DEFAULT ''"},
			{"special_kind", "special_kind TEXT NOT NULL DEFAULT ''"},
			{"deleted", "deleted INTEGER NOT NULL DEFAULT 0"},
			{"deleted_at", "deleted_at TIMESTAMP"},
		},
		indexes: []string{
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_entities_slug ON entities(slug) WHERE slug != ''",
			"CREATE INDEX IF NOT EXISTS idx_entities_folder ON entities(folder_id) WHERE deleted = 0",
		},
	},
	{
		name: "attribute_values",
		baseline: `CREATE TABLE IF NOT EXISTS attribute_values (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entity_id INTEGER NOT NULL REFERENCES entities(id),
			template_id INTEGER NOT NULL REFERENCES attribute_templates(id),
			value_type TEXT NOT NULL,
			value TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		added: []columnSpec{
			{"updated_at", "updated_at TIMESTAMP"},
		},
		indexes: []string{
			"CREATE INDEX IF NOT EXISTS idx_values_entity ON attribute_values(entity_id)",
			"CREATE INDEX IF NOT EXISTS idx_values_template ON attribute_values(template_id)",
		},
	},
	{
		name: "nodes",
		baseline: `CREATE TABLE IF NOT EXISTS nodes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			object_id TEXT NOT NULL,
			object_kind TEXT NOT NULL,
			characteristic TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		indexes: []string{
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_nodes_object ON nodes(object_id, object_kind)",
			"CREATE INDEX IF NOT EXISTS idx_nodes_characteristic ON nodes(characteristic)",
		},
	},
	{
		name: "relations",
		baseline: `CREATE TABLE IF NOT EXISTS relations (
			id TEXT PRIMARY KEY,
			from_node_id INTEGER NOT NULL REFERENCES nodes(id),
			to_node_id INTEGER NOT NULL REFERENCES nodes(id),
			from_kind TEXT NOT NULL,
			to_kind TEXT NOT NULL,
			relation_type TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		indexes: []string{
			"CREATE INDEX IF NOT EXISTS idx_relations_from ON relations(from_node_id)",
			"CREATE INDEX IF NOT EXISTS idx_relations_to ON relations(to_node_id)",
			"CREATE INDEX IF NOT EXISTS idx_relations_type ON relations(relation_type)",
		},
	},
}

// Heal brings a world store to the structural shape the current code expects.
// Additive and idempotent: tables are created if absent, columns introduced
// after a table's baseline are added if missing, and legacy rows without a
// slug are backfilled. Existing columns and rows are never altered or dropped.
//
// A failure on one table or one row is logged and skipped; the rest of the
// store still heals. Heal returns an error only when the store is unusable.
func Heal(db *sql.DB, logger *zap.SugaredLogger) error {
	if err := db.Ping(); err != nil {
		return errors.Wrap(err, "store unreachable")
	}

	for _, spec := range schema {
		if err := healTable(db, spec, logger); err != nil {
			// Best-effort self-healing: one damaged table must not block the rest
			if logger != nil {
				logger.Errorw("Schema healing failed for table",
					"table", spec.name,
					"error", err,
				)
			}
		}
	}

	backfillSlugs(db, "folders", logger)
	backfillSlugs(db, "entities", logger)

	return nil
}

// healTable creates the table if absent and adds any missing post-baseline
// columns and indexes. Each structural change is a single atomic statement.
func healTable(db *sql.DB, spec tableSpec, logger *zap.SugaredLogger) error {
	existed, err := tableExists(db, spec.name)
	if err != nil {
		return errors.Wrapf(err, "check table %s", spec.name)
	}

	if _, err := db.Exec(spec.baseline); err != nil {
		return errors.Wrapf(err, "create table %s", spec.name)
	}
	if !existed {
		recordHeal(db, spec.name, "created table", logger)
	}

	cols, err := tableColumns(db, spec.name)
	if err != nil {
		return errors.Wrapf(err, "inspect table %s", spec.name)
	}

	for _, col := range spec.added {
		if cols[col.name] {
			continue
		}
		alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", spec.name, col.definition)
		if _, err := db.Exec(alter); err != nil {
			if logger != nil {
				logger.Errorw("Failed to add column",
					"table", spec.name,
					"column", col.name,
					"error", err,
				)
			}
			continue
		}
		recordHeal(db, spec.name, "added column "+col.name, logger)
	}

	for _, idx := range spec.indexes {
		if _, err := db.Exec(idx); err != nil && logger != nil {
			logger.Errorw("Failed to create index",
				"table", spec.name,
				"error", err,
			)
		}
	}

	return nil
}

// backfillSlugs computes slugs for rows written before the slug column
// existed. The scheme is deterministic (name + row id) so repeated healing
// never rewrites a slug.
func backfillSlugs(db *sql.DB, table string, logger *zap.SugaredLogger) {
	rows, err := db.Query(fmt.Sprintf("SELECT id, name FROM %s WHERE slug = ''", table))
	if err != nil {
		if logger != nil {
			logger.Errorw("Slug backfill query failed", "table", table, "error", err)
		}
		return
	}

	type pending struct {
		id   int64
		name string
	}
	var todo []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.name); err != nil {
			if logger != nil {
				logger.Errorw("Slug backfill scan failed", "table", table, "error", err)
			}
			continue
		}
		todo = append(todo, p)
	}
	rows.Close()

	for _, p := range todo {
		s := slug.Make(p.name, p.id)
		if _, err := db.Exec(fmt.Sprintf("UPDATE %s SET slug = ? WHERE id = ?", table), s, p.id); err != nil {
			// One bad row must not abort the rest of the backfill
			if logger != nil {
				logger.Errorw("Slug backfill failed for row",
					"table", table,
					"id", p.id,
					"error", err,
				)
			}
			continue
		}
		recordHeal(db, table, fmt.Sprintf("backfilled slug for row %d", p.id), logger)
	}

	if len(todo) > 0 && logger != nil {
		logger.Infow("Backfilled slugs", "table", table, "rows", len(todo))
	}
}

// recordHeal appends an audit row for an applied structural change.
// Audit failures are logged but never block healing.
func recordHeal(db *sql.DB, table, change string, logger *zap.SugaredLogger) {
	if _, err := db.Exec(
		"INSERT INTO schema_heal_log (table_name, change) VALUES (?, ?)", table, change,
	); err != nil && logger != nil {
		logger.Warnw("Failed to record heal log entry",
			"table", table,
			"change", change,
			"error", err,
		)
	}
}

func tableExists(db *sql.DB, name string) (bool, error) {
	var exists bool
	err := db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?)", name,
	).Scan(&exists)
	return exists, err
}

// tableColumns returns the current column set of a table via PRAGMA table_info.
func tableColumns(db *sql.DB, name string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", name))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			colName   string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		cols[colName] = true
	}
	return cols, rows.Err()
}

// HealLogCount returns the number of recorded structural changes.
// Used by maintenance tooling to show what healing has done.
func HealLogCount(db *sql.DB) (int, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM schema_heal_log").Scan(&n)
	return n, err
}
