package sqlite

import (
	"context"
	"fmt"
)

// schemaSQL is the idempotent bootstrap DDL. The stories table doubles as the
// extraction work queue: content_status/content_attempts drive the claim query,
// so the content_queue index must cover (status, attempts, time)
const schemaSQL = `
CREATE TABLE IF NOT EXISTS stories (
    id INTEGER PRIMARY KEY,
    title TEXT NOT NULL,
    url TEXT,
    domain TEXT,
    by TEXT,
    time INTEGER,
    score INTEGER DEFAULT 0,
    descendants INTEGER DEFAULT 0,
    content TEXT,
    content_status TEXT DEFAULT 'pending',
    content_attempts INTEGER DEFAULT 0,
    content_source TEXT,
    browser_ms REAL DEFAULT 0,
    teaser TEXT,
    hit_front_page INTEGER DEFAULT 0,
    front_page_rank INTEGER,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS fetched_urls (
    url TEXT PRIMARY KEY,
    content TEXT,
    content_source TEXT,
    browser_ms REAL DEFAULT 0,
    fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS usage_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    story_id INTEGER,
    url TEXT,
    browser_ms REAL,
    source TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS usage_summary (
    month TEXT PRIMARY KEY,
    request_count INTEGER DEFAULT 0,
    total_browser_ms REAL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS blocked_domains (
    domain TEXT PRIMARY KEY,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS blocked_words (
    word TEXT PRIMARY KEY,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS merit_words (
    word TEXT PRIMARY KEY,
    weight INTEGER DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS demerit_words (
    word TEXT PRIMARY KEY,
    weight INTEGER DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS merit_domains (
    domain TEXT PRIMARY KEY,
    weight INTEGER DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS demerit_domains (
    domain TEXT PRIMARY KEY,
    weight INTEGER DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS read_later (
    story_id INTEGER PRIMARY KEY REFERENCES stories(id),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- No FK on purpose: a dismissal must outlive its story so the ingestor
-- cannot resurrect a deleted-because-dismissed story
CREATE TABLE IF NOT EXISTS dismissed (
    story_id INTEGER PRIMARY KEY,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS history (
    story_id INTEGER PRIMARY KEY REFERENCES stories(id),
    opened_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_stories_domain ON stories(domain);
CREATE INDEX IF NOT EXISTS idx_stories_time ON stories(time DESC);
CREATE INDEX IF NOT EXISTS idx_stories_content_status ON stories(content_status);
CREATE INDEX IF NOT EXISTS idx_stories_content_queue ON stories(content_status, content_attempts, time);
`

// EnsureSchema applies the bootstrap DDL plus additive migrations for
// databases created before the teaser and front-page columns existed
func (d *DB) EnsureSchema(ctx context.Context) error {
	if _, err := d.SQL.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}

	migrations := []struct{ col, ddl string }{
		{"hit_front_page", "ALTER TABLE stories ADD COLUMN hit_front_page INTEGER DEFAULT 0"},
		{"front_page_rank", "ALTER TABLE stories ADD COLUMN front_page_rank INTEGER"},
		{"teaser", "ALTER TABLE stories ADD COLUMN teaser TEXT"},
	}
	for _, m := range migrations {
		ok, err := d.hasColumn(ctx, "stories", m.col)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if _, err := d.SQL.ExecContext(ctx, m.ddl); err != nil {
			return fmt.Errorf("sqlite: migrate %s: %w", m.col, err)
		}
	}
	return nil
}

func (d *DB) hasColumn(ctx context.Context, table, col string) (bool, error) {
	rows, err := d.SQL.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notnull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == col {
			return true, nil
		}
	}
	return false, rows.Err()
}
