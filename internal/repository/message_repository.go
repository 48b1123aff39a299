package repository

import (
	"context"
	"database/sql"
	"fmt"

	"thrift-store/internal/domain"

	"github.com/google/uuid"
)

const messageColumns = `id, item_id, sender_id, recipient_id, content, is_read, created_at`

// MessageRepository defines the interface for message data access
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	// Thread returns the messages about itemID exchanged between a and b, oldest first
	Thread(ctx context.Context, itemID, a, b uuid.UUID) ([]*domain.Message, error)
	// MarkRead flags the messages about itemID received by recipientID as read and
	// returns how many changed. A non-nil senderID restricts it to one counterpart.
	MarkRead(ctx context.Context, itemID, recipientID uuid.UUID, senderID *uuid.UUID) (int64, error)
	// Initiators lists the distinct users that have written to sellerID about itemID
	Initiators(ctx context.Context, itemID, sellerID uuid.UUID) ([]uuid.UUID, error)
	Inbox(ctx context.Context, userID uuid.UUID) ([]*domain.Conversation, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

type messageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new instance of MessageRepository
func NewMessageRepository(db *sql.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (` + messageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := executor(ctx, r.db).ExecContext(
		ctx,
		query,
		message.ID,
		message.ItemID,
		message.SenderID,
		message.RecipientID,
		message.Content,
		message.IsRead,
		message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

func (r *messageRepository) Thread(ctx context.Context, itemID, a, b uuid.UUID) ([]*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE item_id = $1
		  AND ((sender_id = $2 AND recipient_id = $3) OR (sender_id = $3 AND recipient_id = $2))
		ORDER BY created_at ASC, id
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, itemID, a, b)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}
	defer rows.Close()

	messages := []*domain.Message{}
	for rows.Next() {
		message := &domain.Message{}
		if err := scanMessage(rows, message); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, message)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, itemID, recipientID uuid.UUID, senderID *uuid.UUID) (int64, error) {
	query := `
		UPDATE messages
		SET is_read = TRUE
		WHERE item_id = $1 AND recipient_id = $2 AND is_read = FALSE
		  AND ($3::uuid IS NULL OR sender_id = $3)
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query, itemID, recipientID, senderID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

func (r *messageRepository) Initiators(ctx context.Context, itemID, sellerID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT sender_id
		FROM messages
		WHERE item_id = $1 AND recipient_id = $2
		GROUP BY sender_id
		ORDER BY MIN(created_at)
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, itemID, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list initiators: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan initiator: %w", err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating initiators: %w", err)
	}

	return ids, nil
}

// Inbox groups the user's messages by (item, counterpart) and returns the latest
// message of each conversation, most recent conversation first.
func (r *messageRepository) Inbox(ctx context.Context, userID uuid.UUID) ([]*domain.Conversation, error) {
	query := `
		WITH mine AS (
			SELECT m.*,
			       CASE WHEN m.sender_id = $1 THEN m.recipient_id ELSE m.sender_id END AS counterpart
			FROM messages m
			WHERE m.sender_id = $1 OR m.recipient_id = $1
		),
		latest AS (
			SELECT DISTINCT ON (item_id, counterpart) *
			FROM mine
			ORDER BY item_id, counterpart, created_at DESC, id DESC
		)
		SELECT l.id, l.item_id, l.sender_id, l.recipient_id, l.content, l.is_read, l.created_at,
		       l.counterpart, i.title,
		       (SELECT COUNT(*) FROM mine u
		        WHERE u.item_id = l.item_id AND u.counterpart = l.counterpart
		          AND u.recipient_id = $1 AND u.is_read = FALSE)
		FROM latest l
		JOIN items i ON i.id = l.item_id
		ORDER BY l.created_at DESC, l.id
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inbox: %w", err)
	}
	defer rows.Close()

	conversations := []*domain.Conversation{}
	for rows.Next() {
		last := &domain.Message{}
		conv := &domain.Conversation{LastMessage: last}
		err := rows.Scan(
			&last.ID,
			&last.ItemID,
			&last.SenderID,
			&last.RecipientID,
			&last.Content,
			&last.IsRead,
			&last.CreatedAt,
			&conv.CounterpartID,
			&conv.ItemTitle,
			&conv.UnreadCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conv.ItemID = last.ItemID
		conversations = append(conversations, conv)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	return conversations, nil
}

func (r *messageRepository) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM messages WHERE recipient_id = $1 AND is_read = FALSE`

	var count int
	if err := executor(ctx, r.db).QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}

	return count, nil
}

func scanMessage(row rowScanner, m *domain.Message) error {
	return row.Scan(
		&m.ID,
		&m.ItemID,
		&m.SenderID,
		&m.RecipientID,
		&m.Content,
		&m.IsRead,
		&m.CreatedAt,
	)
}
