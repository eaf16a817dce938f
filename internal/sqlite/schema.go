// This file holds the DDL for the two attached rings and the overlay views.
package sqlite

// Schema names attached to the store connection.
const (
	sourceSchema  = "source"
	stagingSchema = "staging"
)

// Source ring relations. They mirror the CSV files column for column and
// are emptied and refilled on every reload.
var sourceDDL = []string{
	`CREATE TABLE IF NOT EXISTS source.tag (
    id TEXT PRIMARY KEY,
    name TEXT,
    summary TEXT
);`,
	`CREATE TABLE IF NOT EXISTS source.thing (
    url TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    summary TEXT,
    category_id TEXT NOT NULL
);`,
	`CREATE TABLE IF NOT EXISTS source.thing_tag (
    thing_id TEXT NOT NULL,
    tag_id TEXT NOT NULL,
    PRIMARY KEY (thing_id, tag_id)
);`,
}

// Staging ring relations. IF NOT EXISTS keeps staged work in a disk side
// file across runs. The changelog payload is JSON; operation, kind and
// entity_id are extracted from it so they can be filtered on.
var stagingDDL = []string{
	`CREATE TABLE IF NOT EXISTS staging.tag (
    id TEXT PRIMARY KEY,
    name TEXT,
    summary TEXT
);`,
	`CREATE TABLE IF NOT EXISTS staging.thing (
    url TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    summary TEXT,
    category_id TEXT NOT NULL
);`,
	`CREATE TABLE IF NOT EXISTS staging.thing_tag (
    thing_id TEXT NOT NULL,
    tag_id TEXT NOT NULL,
    PRIMARY KEY (thing_id, tag_id)
);`,
	`CREATE TABLE IF NOT EXISTS staging.tombstone (
    kind TEXT NOT NULL,
    id TEXT NOT NULL,
    PRIMARY KEY (kind, id)
);`,
	`CREATE TABLE IF NOT EXISTS staging.changelog (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id TEXT NOT NULL UNIQUE,
    timestamp INTEGER NOT NULL,
    data TEXT NOT NULL CHECK (json_valid(data)),
    applied INTEGER NOT NULL DEFAULT 0,
    operation TEXT GENERATED ALWAYS AS (json_extract(data, '$.operation')) VIRTUAL,
    kind TEXT GENERATED ALWAYS AS (json_extract(data, '$.kind')) VIRTUAL,
    entity_id TEXT GENERATED ALWAYS AS (json_extract(data, '$.id')) VIRTUAL
);`,
	`CREATE INDEX IF NOT EXISTS staging.idx_changelog_order ON changelog(timestamp, seq);`,
	`CREATE INDEX IF NOT EXISTS staging.idx_thing_tag_tag ON thing_tag(tag_id);`,
}

// Overlay views. Staged rows come first; a source row is visible only when
// no staged row shares its key and no tombstone hides it. Empty optional
// text becomes NULL. The ring column records where each
// row came from.
var overlayDDL = []string{
	`DROP VIEW IF EXISTS temp.tag;`,
	`CREATE TEMP VIEW tag AS
SELECT id, NULLIF(name, '') AS name, NULLIF(summary, '') AS summary, 'staging' AS ring
FROM staging.tag
UNION ALL
SELECT s.id, NULLIF(s.name, ''), NULLIF(s.summary, ''), 'source'
FROM source.tag s
WHERE NOT EXISTS (SELECT 1 FROM staging.tag g WHERE g.id = s.id)
  AND NOT EXISTS (SELECT 1 FROM staging.tombstone t WHERE t.kind = 'tag' AND t.id = s.id);`,

	`DROP VIEW IF EXISTS temp.thing;`,
	`CREATE TEMP VIEW thing AS
SELECT url, name, NULLIF(summary, '') AS summary, category_id, 'staging' AS ring
FROM staging.thing
UNION ALL
SELECT s.url, s.name, NULLIF(s.summary, ''), s.category_id, 'source'
FROM source.thing s
WHERE NOT EXISTS (SELECT 1 FROM staging.thing g WHERE g.url = s.url)
  AND NOT EXISTS (SELECT 1 FROM staging.tombstone t WHERE t.kind = 'thing' AND t.id = s.url);`,

	`DROP VIEW IF EXISTS temp.thing_tag;`,
	`CREATE TEMP VIEW thing_tag AS
SELECT thing_id, tag_id, 'staging' AS ring
FROM staging.thing_tag
UNION ALL
SELECT s.thing_id, s.tag_id, 'source'
FROM source.thing_tag s
WHERE NOT EXISTS (SELECT 1 FROM staging.thing_tag g WHERE g.thing_id = s.thing_id AND g.tag_id = s.tag_id)
  AND NOT EXISTS (SELECT 1 FROM staging.tombstone t WHERE t.kind = 'thing_tag' AND t.id = s.thing_id || char(9) || s.tag_id);`,
}

// pragmas applied to the main connection after it is opened.
var pragmas = []string{
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = OFF",
}
