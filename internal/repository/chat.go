package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/praxis-labs/lorebase/internal/domain"
)

type ChatRepository struct {
	pool *pgxpool.Pool
}

func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

func (r *ChatRepository) CreateChat(ctx context.Context, chat *domain.Chat) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chats (id, project_id, created_at) VALUES ($1, $2, $3)`,
		chat.ID, chat.ProjectID, chat.CreatedAt,
	)
	return err
}

func (r *ChatRepository) GetChatByID(ctx context.Context, id string) (*domain.Chat, error) {
	var c domain.Chat
	err := r.pool.QueryRow(ctx,
		`SELECT id, project_id, created_at FROM chats WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.ProjectID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChatNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ChatRepository) ListChatsByProject(ctx context.Context, projectID string) ([]*domain.Chat, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, project_id, created_at FROM chats WHERE project_id = $1 ORDER BY created_at DESC`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []*domain.Chat
	for rows.Next() {
		var c domain.Chat
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.CreatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, &c)
	}
	return chats, rows.Err()
}

func (r *ChatRepository) CreateMessage(ctx context.Context, m *domain.Message) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO messages (id, chat_id, role, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.ChatID, m.Role, m.Content, m.CreatedAt,
	)
	return err
}

// ListMessagesByChat returns the chat's messages oldest first.
func (r *ChatRepository) ListMessagesByChat(ctx context.Context, chatID string) ([]*domain.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, chat_id, role, content, created_at FROM messages WHERE chat_id = $1 ORDER BY created_at ASC`,
		chatID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}
