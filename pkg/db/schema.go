package db

const (
	// versionsTableSQL holds one row per versioned component.
	versionsTableSQL = `
CREATE TABLE IF NOT EXISTS daybook_versions (
    component TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    created_at REAL DEFAULT (unixepoch())
);
`

	// SchemaV1 is the original journal layout: entries, tags and their junction.
	// Timestamps are Unix milliseconds.
	SchemaV1 = `
CREATE TABLE IF NOT EXISTS entries (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    mood TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    deleted_at INTEGER,
    sync_status TEXT NOT NULL DEFAULT 'pending',
    sync_version INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tags (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    color TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS entry_tags (
    entry_id TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
    tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    PRIMARY KEY (entry_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_entries_deleted_at ON entries(deleted_at);
CREATE INDEX IF NOT EXISTS idx_entries_sync_status ON entries(sync_status);
CREATE INDEX IF NOT EXISTS idx_entry_tags_tag_id ON entry_tags(tag_id);
`

	// SchemaV2 introduces categories. The entries.category_id column is added
	// separately, after checking the live schema.
	SchemaV2 = `
CREATE TABLE IF NOT EXISTS categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    icon TEXT,
    color TEXT NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);
`

	addCategoryColumnSQL = `ALTER TABLE entries ADD COLUMN category_id TEXT REFERENCES categories(id) ON DELETE SET NULL`

	categoryIndexSQL = `CREATE INDEX IF NOT EXISTS idx_entries_category ON entries(category_id)`

	// searchIndexSQL is an external-content FTS5 table mirroring entries by rowid.
	searchIndexSQL = `
CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
    title,
    content,
    content='entries',
    content_rowid='rowid'
);
`

	searchTriggersSQL = `
CREATE TRIGGER IF NOT EXISTS entries_ai AFTER INSERT ON entries BEGIN
    INSERT INTO entries_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
END;

CREATE TRIGGER IF NOT EXISTS entries_ad AFTER DELETE ON entries BEGIN
    INSERT INTO entries_fts(entries_fts, rowid, title, content) VALUES ('delete', old.rowid, old.title, old.content);
END;

CREATE TRIGGER IF NOT EXISTS entries_au AFTER UPDATE OF title, content ON entries BEGIN
    INSERT INTO entries_fts(entries_fts, rowid, title, content) VALUES ('delete', old.rowid, old.title, old.content);
    INSERT INTO entries_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
END;
`

	rebuildSearchIndexSQL = `INSERT INTO entries_fts(entries_fts) VALUES ('rebuild')`

	checkSearchIndexSQL = `SELECT 1 FROM entries_fts LIMIT 0`
)

var searchTriggerNames = []string{"entries_ai", "entries_ad", "entries_au"}

// DefaultCategory is a starter category seeded into a fresh database.
type DefaultCategory struct {
	ID        string
	Name      string
	Icon      string
	Color     string
	SortOrder int
}

// DefaultCategories have stable ids so seeding stays idempotent.
var DefaultCategories = []DefaultCategory{
	{ID: "default-personal", Name: "Personal", Icon: "journal-outline", Color: "#6366F1", SortOrder: 0},
	{ID: "default-work", Name: "Work", Icon: "briefcase-outline", Color: "#F59E0B", SortOrder: 1},
	{ID: "default-book", Name: "Book Notes", Icon: "book-outline", Color: "#10B981", SortOrder: 2},
	{ID: "default-travel", Name: "Travel", Icon: "airplane-outline", Color: "#EC4899", SortOrder: 3},
	{ID: "default-gratitude", Name: "Gratitude", Icon: "heart-outline", Color: "#EF4444", SortOrder: 4},
}
