package storage

const Schema = `
-- Documents: one row per stored document
CREATE TABLE IF NOT EXISTS documents (
    name TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Annotations: every annotation of every set, default set under ''
CREATE TABLE IF NOT EXISTS annotations (
    doc_name TEXT NOT NULL,
    set_name TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL,        -- insertion order within the set
    ann_id INTEGER NOT NULL,
    ann_type TEXT NOT NULL,
    start_offset INTEGER NOT NULL,
    end_offset INTEGER NOT NULL,
    features TEXT NOT NULL DEFAULT '{}', -- JSON object
    PRIMARY KEY (doc_name, set_name, position),
    FOREIGN KEY (doc_name) REFERENCES documents(name) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_annotations_type ON annotations(doc_name, set_name, ann_type);

`
