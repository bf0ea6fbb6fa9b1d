package store

const createTableSQL = `
CREATE TABLE IF NOT EXISTS reports (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    agent_id        TEXT NOT NULL DEFAULT '',
    hostname        TEXT NOT NULL,
    collected_at    TEXT NOT NULL,
    stored_at       TEXT NOT NULL,
    facts_json      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_hostname ON reports(hostname);
CREATE INDEX IF NOT EXISTS idx_reports_agent_id ON reports(agent_id);
CREATE INDEX IF NOT EXISTS idx_reports_collected_at ON reports(collected_at);
`
