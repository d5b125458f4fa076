package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// StoredMessage is one persisted channel message.
type StoredMessage struct {
	ID        int64           `json:"id"`
	ChannelID string          `json:"channel"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// History persists channel message payloads for later replay.
type History struct {
	db *DB
}

// NewHistory creates a history store using the given database.
func NewHistory(db *DB) *History {
	return &History{db: db}
}

// Append records a message payload for a channel.
func (h *History) Append(channelID string, payload json.RawMessage) error {
	_, err := h.db.sql.Exec(
		`INSERT INTO channel_messages (channel_id, payload, created_at)
		 VALUES (?, ?, ?)`,
		channelID, string(payload), time.Now().UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	return nil
}

// Recent returns up to limit messages for a channel, oldest first.
func (h *History) Recent(channelID string, limit int) ([]StoredMessage, error) {
	rows, err := h.db.sql.Query(
		`SELECT id, channel_id, payload, created_at FROM (
			SELECT id, channel_id, payload, created_at
			FROM channel_messages WHERE channel_id = ?
			ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`,
		channelID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var msgs []StoredMessage
	for rows.Next() {
		var m StoredMessage
		var payload, createdAt string
		if err := rows.Scan(&m.ID, &m.ChannelID, &payload, &createdAt); err != nil {
			continue
		}
		m.Payload = json.RawMessage(payload)
		m.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Count returns the number of stored messages for a channel.
func (h *History) Count(channelID string) (int, error) {
	var count int
	err := h.db.sql.QueryRow(
		`SELECT COUNT(*) FROM channel_messages WHERE channel_id = ?`, channelID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting history: %w", err)
	}
	return count, nil
}

// Prune deletes messages older than the given retention window.
// Returns the number of deleted rows.
func (h *History) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention).Format(time.DateTime)
	res, err := h.db.sql.Exec(
		`DELETE FROM channel_messages WHERE created_at < ?`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		h.db.log.Debug().Int64("deleted", n).Msg("pruned channel history")
	}
	return n, nil
}
