package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"msgboard/internal/common"
	"msgboard/internal/domain/model"
)

type MessageRepository interface {
	GetAll(ctx context.Context) ([]model.Message, error)
	Create(ctx context.Context, message *model.Message) error
	FindByKey(ctx context.Context, key string) (*model.Message, error)
	DeleteByKey(ctx context.Context, key, username string) error
}

type pgMessageRepository struct {
	db *sql.DB
}

func NewPgMessageRepository(db *sql.DB) MessageRepository {
	return &pgMessageRepository{db: db}
}

// GetAll returns the full board snapshot in creation order, oldest first.
func (r *pgMessageRepository) GetAll(ctx context.Context) ([]model.Message, error) {
	query := `SELECT key, username, value, seq, created_at FROM messages ORDER BY seq ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgMessageRepository.GetAll query: %w", err)
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.Key, &m.Username, &m.Value, &m.Seq, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgMessageRepository.GetAll scan: %w", err)
		}
		messages = append(messages, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgMessageRepository.GetAll rows.Err: %w", err)
	}

	return messages, nil
}

func (r *pgMessageRepository) Create(ctx context.Context, m *model.Message) error {
	query := `INSERT INTO messages (key, username, value) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, m.Key, m.Username, m.Value)
	if err != nil {
		return fmt.Errorf("pgMessageRepository.Create: %w", err)
	}
	return nil
}

func (r *pgMessageRepository) FindByKey(ctx context.Context, key string) (*model.Message, error) {
	query := `SELECT key, username, value, seq, created_at FROM messages WHERE key = $1`
	m := &model.Message{}
	err := r.db.QueryRowContext(ctx, query, key).Scan(&m.Key, &m.Username, &m.Value, &m.Seq, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgMessageRepository.FindByKey: %w", err)
	}
	return m, nil
}

// DeleteByKey removes the message iff both key and owner match, so the
// ownership check and the delete are a single statement.
func (r *pgMessageRepository) DeleteByKey(ctx context.Context, key, username string) error {
	query := `DELETE FROM messages WHERE key = $1 AND username = $2`
	res, err := r.db.ExecContext(ctx, query, key, username)
	if err != nil {
		return fmt.Errorf("pgMessageRepository.DeleteByKey: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgMessageRepository.DeleteByKey rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}
