package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create channel messages",
		SQL: `
			CREATE TABLE channel_messages (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				channel_id  TEXT NOT NULL,
				payload     TEXT NOT NULL,
				created_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_channel_messages_channel ON channel_messages (channel_id, id);
			CREATE INDEX idx_channel_messages_created ON channel_messages (created_at);
		`,
	},
}
