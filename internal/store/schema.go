package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS configurations (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	name           TEXT NOT NULL UNIQUE,
	headless_kind  TEXT NOT NULL,
	viewport_w     INTEGER NOT NULL,
	viewport_h     INTEGER NOT NULL,
	user_agent     TEXT NOT NULL,
	stealth        INTEGER NOT NULL,
	wait_strategy  TEXT NOT NULL,
	timeout_ms     INTEGER NOT NULL,
	attempts       INTEGER NOT NULL DEFAULT 0,
	successes      INTEGER NOT NULL DEFAULT 0,
	last_success   TEXT,
	last_failure   TEXT
);

CREATE TABLE IF NOT EXISTS domains (
	domain         TEXT PRIMARY KEY,
	best_config_id INTEGER,
	confidence     REAL NOT NULL DEFAULT 0,
	min_delay_ms   INTEGER NOT NULL DEFAULT 0,
	max_per_minute INTEGER NOT NULL DEFAULT 0,
	block_tags     TEXT,
	first_seen     TEXT NOT NULL,
	last_updated   TEXT NOT NULL,
	sample_count   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS outcomes (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	schema_version INTEGER NOT NULL,
	ts             TEXT NOT NULL,
	domain         TEXT NOT NULL,
	url            TEXT NOT NULL,
	config_id      INTEGER NOT NULL,
	result         TEXT NOT NULL,
	block_service  TEXT,
	http_status    INTEGER NOT NULL DEFAULT 0,
	response_ms    INTEGER NOT NULL DEFAULT 0,
	content_length INTEGER NOT NULL DEFAULT 0,
	page_title     TEXT,
	hour           INTEGER NOT NULL,
	weekday        INTEGER NOT NULL,
	recent_rate    REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_outcomes_domain ON outcomes(domain);
CREATE INDEX IF NOT EXISTS idx_outcomes_config ON outcomes(config_id);

CREATE TABLE IF NOT EXISTS similarity (
	domain_a TEXT NOT NULL,
	domain_b TEXT NOT NULL,
	score    REAL NOT NULL,
	kind     TEXT NOT NULL,
	PRIMARY KEY (domain_a, domain_b)
);

CREATE TABLE IF NOT EXISTS jobs (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	queue          TEXT NOT NULL,
	type           TEXT NOT NULL,
	payload        BLOB,
	priority       INTEGER NOT NULL DEFAULT 0,
	status         TEXT NOT NULL,
	attempts       INTEGER NOT NULL DEFAULT 0,
	max_attempts   INTEGER NOT NULL,
	last_error     TEXT,
	result         BLOB,
	created_at     TEXT NOT NULL,
	available_at   TEXT NOT NULL,
	started_at     TEXT,
	completed_at   TEXT,
	locked_by      TEXT,
	locked_at      TEXT,
	lease_deadline TEXT,
	depends_on     INTEGER
);
CREATE INDEX IF NOT EXISTS idx_jobs_claim ON jobs(status, priority DESC, available_at ASC);

CREATE TABLE IF NOT EXISTS dead_letter (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id     INTEGER NOT NULL,
	queue      TEXT NOT NULL,
	payload    BLOB,
	error      TEXT,
	attempts   INTEGER NOT NULL,
	died_at    TEXT NOT NULL,
	revived    INTEGER NOT NULL DEFAULT 0
);
`

// migrate creates every table and index if they do not already exist. The
// schema carries no version-bump migrations of its own yet; schema_version
// lives on individual records (outcomes, capture results) per spec §6/§9.
func migrate(db *DB) error {
	_, err := db.sql.Exec(schemaSQL)
	return err
}
