package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the evidence database schema.
const Schema = `
-- Evidence records table
CREATE TABLE IF NOT EXISTS evidence (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,

    -- Timestamps
    request_time TIMESTAMP NOT NULL,
    route_time TIMESTAMP,
    upstream_time TIMESTAMP,
    response_time TIMESTAMP,
    recorded_time TIMESTAMP NOT NULL,

    -- Request metadata
    protocol TEXT NOT NULL,
    listener_name TEXT,
    client_addr TEXT,
    request_method TEXT,
    request_path TEXT,
    request_headers TEXT,
    request_bytes INTEGER,

    -- Routing decision
    route TEXT,
    predicate_matched BOOLEAN,
    upstream TEXT,
    generation INTEGER,

    -- TLS
    tls_sni TEXT,
    tls_alpn TEXT,

    -- Response metadata
    response_status INTEGER,
    response_bytes INTEGER,
    upstream_latency INTEGER,

    -- Error info
    error TEXT,
    error_kind TEXT
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_evidence_request_time ON evidence(request_time);
CREATE INDEX IF NOT EXISTS idx_evidence_route ON evidence(route);
CREATE INDEX IF NOT EXISTS idx_evidence_upstream ON evidence(upstream);
CREATE INDEX IF NOT EXISTS idx_evidence_protocol ON evidence(protocol);
CREATE INDEX IF NOT EXISTS idx_evidence_response_status ON evidence(response_status);
CREATE INDEX IF NOT EXISTS idx_evidence_request_id ON evidence(request_id);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
