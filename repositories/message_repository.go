package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/gamejam/models"
)

var ErrMessageUserInvalid = errors.New("message sender or recipient invalid")

type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	// ListConversation returns messages between two users, oldest first.
	ListConversation(ctx context.Context, userID, otherID int, limit int) ([]models.Message, error)
	Inbox(ctx context.Context, userID int) ([]models.ConversationSummary, error)
	// MarkRead marks everything otherID sent to userID as read.
	MarkRead(ctx context.Context, userID, otherID int) (int64, error)
}

type postgresMessageRepository struct {
	db *sql.DB
}

func NewPostgresMessageRepository(db *sql.DB) MessageRepository {
	return &postgresMessageRepository{db: db}
}

func scanMessage(row rowScanner) (*models.Message, error) {
	var m models.Message
	var readAt sql.NullTime
	if err := row.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &readAt, &m.CreatedAt); err != nil {
		return nil, err
	}
	if readAt.Valid {
		m.ReadAt = &readAt.Time
	}
	return &m, nil
}

func (r *postgresMessageRepository) Create(ctx context.Context, m *models.Message) error {
	query := `
		INSERT INTO messages (sender_id, recipient_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, m.SenderID, m.RecipientID, m.Body).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if _, ok := pqConstraint(err, pqForeignKeyViolation); ok {
			return ErrMessageUserInvalid
		}
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *postgresMessageRepository) ListConversation(ctx context.Context, userID, otherID int, limit int) ([]models.Message, error) {
	query := `
		SELECT id, sender_id, recipient_id, body, read_at, created_at FROM (
			SELECT id, sender_id, recipient_id, body, read_at, created_at
			FROM messages
			WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		) recent
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID, otherID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, *m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *postgresMessageRepository) Inbox(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	// DISTINCT ON picks the newest message per counterpart; the outer query
	// puts the most recently active conversations first.
	query := `
		SELECT counterpart, counterpart_name, id, sender_id, recipient_id, body, read_at, created_at, unread
		FROM (
			SELECT DISTINCT ON (counterpart)
				CASE WHEN m.sender_id = $1 THEN m.recipient_id ELSE m.sender_id END AS counterpart,
				COALESCE(u.name, u.email) AS counterpart_name,
				m.id, m.sender_id, m.recipient_id, m.body, m.read_at, m.created_at,
				(SELECT COUNT(*) FROM messages x
					WHERE x.recipient_id = $1
					AND x.sender_id = CASE WHEN m.sender_id = $1 THEN m.recipient_id ELSE m.sender_id END
					AND x.read_at IS NULL) AS unread
			FROM messages m
			JOIN users u ON u.id = CASE WHEN m.sender_id = $1 THEN m.recipient_id ELSE m.sender_id END
			WHERE m.sender_id = $1 OR m.recipient_id = $1
			ORDER BY counterpart, m.created_at DESC, m.id DESC
		) latest
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inbox: %w", err)
	}
	defer rows.Close()

	inbox := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var s models.ConversationSummary
		var readAt sql.NullTime
		err := rows.Scan(
			&s.CounterpartID, &s.CounterpartName,
			&s.LastMessage.ID, &s.LastMessage.SenderID, &s.LastMessage.RecipientID,
			&s.LastMessage.Body, &readAt, &s.LastMessage.CreatedAt,
			&s.UnreadCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inbox row: %w", err)
		}
		if readAt.Valid {
			s.LastMessage.ReadAt = &readAt.Time
		}
		inbox = append(inbox, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return inbox, nil
}

func (r *postgresMessageRepository) MarkRead(ctx context.Context, userID, otherID int) (int64, error) {
	query := `UPDATE messages SET read_at = NOW() WHERE recipient_id = $1 AND sender_id = $2 AND read_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, userID, otherID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return affectedRows(result)
}
