package database

import (
	"context"
	"encoding/json"
	"time"
)

func (q *Queries) LogEvent(ctx context.Context, userID int64, eventType string, payload []byte) (int64, error) {
	query := `INSERT INTO event_journal (user_id, event_type, payload) VALUES ($1, $2, $3) RETURNING id`
	var id int64
	err := q.db.QueryRow(ctx, query, userID, eventType, payload).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

type Event struct {
	ID        int64           `json:"id"`
	EventType string          `json:"event_type"`
	EventTime time.Time       `json:"event_time"`
	Payload   json.RawMessage `json:"payload"`
}

func (q *Queries) GetEventsSince(ctx context.Context, userID int64, sinceID int64) ([]Event, error) {
	query := `
		SELECT id, event_type, event_time, payload
		FROM event_journal
		WHERE user_id = $1 AND id > $2
		ORDER BY id ASC
		LIMIT 100
	`
	rows, err := q.db.Query(ctx, query, userID, sinceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		err := rows.Scan(
			&event.ID,
			&event.EventType,
			&event.EventTime,
			&event.Payload,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if events == nil {
		return []Event{}, nil
	}

	return events, nil
}
