package store

const schema = `
CREATE TABLE IF NOT EXISTS blobs (
    namespace  TEXT PRIMARY KEY,
    value      TEXT NOT NULL DEFAULT '{}',
    updated_at DATETIME NOT NULL
);
`
