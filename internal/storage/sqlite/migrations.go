package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// groups.encargado_id is kept pointing at a participant by the group manager,
// not by a foreign key: participants reference groups, and a deferred
// constraint failing at COMMIT would leave the transaction open.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS groups (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    code TEXT NOT NULL UNIQUE,
    admin_id TEXT NOT NULL,
    encargado_id TEXT NOT NULL,
    current_fine_amount INTEGER NOT NULL CHECK (current_fine_amount >= 0),
    created_at INTEGER NOT NULL,
    FOREIGN KEY (admin_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS participants (
    group_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    username TEXT NOT NULL,
    accumulated_fine INTEGER NOT NULL DEFAULT 0
        CHECK (typeof(accumulated_fine) = 'integer' AND accumulated_fine >= 0),
    current_objective TEXT NOT NULL DEFAULT '',
    has_wildcard INTEGER NOT NULL DEFAULT 1,
    joined_at INTEGER NOT NULL,
    PRIMARY KEY (group_id, user_id),
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS evidence (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    username TEXT NOT NULL,
    week_id TEXT NOT NULL,
    description TEXT NOT NULL,
    attachment_ref TEXT,
    status TEXT NOT NULL DEFAULT 'PENDING'
        CHECK (status IN ('PENDING', 'APPROVED', 'REJECTED')),
    timestamp INTEGER NOT NULL,
    FOREIGN KEY (group_id, user_id) REFERENCES participants(group_id, user_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS challenges (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    challenger_id TEXT NOT NULL,
    challenger_name TEXT NOT NULL,
    challenged_id TEXT NOT NULL,
    challenged_name TEXT NOT NULL,
    description TEXT NOT NULL,
    fine_amount INTEGER NOT NULL CHECK (fine_amount > 0),
    status TEXT NOT NULL DEFAULT 'PENDING'
        CHECK (status IN ('PENDING', 'ACCEPTED', 'REJECTED',
                          'COMPLETED_CHALLENGER_WON', 'COMPLETED_CHALLENGED_WON')),
    created_at INTEGER NOT NULL,
    CHECK (challenger_id <> challenged_id),
    FOREIGN KEY (group_id, challenger_id) REFERENCES participants(group_id, user_id) ON DELETE CASCADE,
    FOREIGN KEY (group_id, challenged_id) REFERENCES participants(group_id, user_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS closed_weeks (
    group_id TEXT NOT NULL,
    week_id TEXT NOT NULL,
    closed_at INTEGER NOT NULL,
    PRIMARY KEY (group_id, week_id),
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS logs (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    message TEXT NOT NULL,
    type TEXT NOT NULL CHECK (type IN ('INFO', 'WARNING', 'SUCCESS', 'DANGER')),
    timestamp INTEGER NOT NULL,
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_participants_user_id ON participants(user_id);
CREATE INDEX IF NOT EXISTS idx_evidence_group_week ON evidence(group_id, week_id, status);
CREATE INDEX IF NOT EXISTS idx_challenges_group_id ON challenges(group_id);
CREATE INDEX IF NOT EXISTS idx_logs_group_id ON logs(group_id, timestamp);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
