package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
    storage_key          TEXT PRIMARY KEY,
    body                 TEXT NOT NULL,
    updated_at           TEXT NOT NULL
);
`

// DocumentKey is the storage key the tracker dataset lives under.
const DocumentKey = "tracker_data"
