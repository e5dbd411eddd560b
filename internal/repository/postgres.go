package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/contactbook/backend/internal/domain"
)

// DB is the subset of *pgxpool.Pool the repository needs
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresRepository implements the domain repositories using PostgreSQL
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Ping checks the database connection
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// UpsertDeviceToken replaces the user's device token
func (r *PostgresRepository) UpsertDeviceToken(ctx context.Context, userID uuid.UUID, token string, platform domain.Platform) (*domain.DeviceToken, error) {
	query := `
		INSERT INTO device_tokens (user_id, token, platform, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET token = EXCLUDED.token, platform = EXCLUDED.platform, updated_at = NOW()
		RETURNING user_id, token, platform, updated_at
	`
	row := r.db.QueryRow(ctx, query, userID, token, string(platform))
	return scanDeviceToken(row)
}

// GetDeviceToken returns the user's current device token
func (r *PostgresRepository) GetDeviceToken(ctx context.Context, userID uuid.UUID) (*domain.DeviceToken, error) {
	query := `SELECT user_id, token, platform, updated_at FROM device_tokens WHERE user_id = $1`
	row := r.db.QueryRow(ctx, query, userID)
	return scanDeviceToken(row)
}

// CreateAlert stores an alert for the in-app list
func (r *PostgresRepository) CreateAlert(ctx context.Context, userID uuid.UUID, kind domain.AlertKind, title, body string, data map[string]interface{}) (*domain.Alert, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode alert data: %w", err)
	}
	query := `
		INSERT INTO alerts (user_id, type, title, body, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, type, title, body, data, is_read, created_at
	`
	row := r.db.QueryRow(ctx, query, userID, string(kind), title, body, raw)
	return scanAlert(row)
}

// ListAlerts returns the newest alerts first
func (r *PostgresRepository) ListAlerts(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Alert, error) {
	query := `
		SELECT id, user_id, type, title, body, data, is_read, created_at
		FROM alerts WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alerts := make([]*domain.Alert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkAlertRead marks one of the user's alerts as read
func (r *PostgresRepository) MarkAlertRead(ctx context.Context, userID, alertID uuid.UUID) error {
	query := `UPDATE alerts SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	tag, err := r.db.Exec(ctx, query, alertID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlertNotFound
	}
	return nil
}

// GetChat loads a chat with its members
func (r *PostgresRepository) GetChat(ctx context.Context, chatID uuid.UUID) (*domain.Chat, error) {
	chat := &domain.Chat{ID: chatID}
	err := r.db.QueryRow(ctx, `SELECT name FROM chats WHERE id = $1`, chatID).Scan(&chat.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChatNotFound
		}
		return nil, err
	}

	query := `
		SELECT u.id, u.name
		FROM chat_members cm
		JOIN users u ON u.id = cm.user_id
		WHERE cm.chat_id = $1
	`
	rows, err := r.db.Query(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.ChatMember
		if err := rows.Scan(&m.UserID, &m.Name); err != nil {
			return nil, err
		}
		chat.Members = append(chat.Members, &m)
	}
	return chat, rows.Err()
}

// CreateMessage stores a chat message
func (r *PostgresRepository) CreateMessage(ctx context.Context, chatID, senderID uuid.UUID, content string) (*domain.Message, error) {
	query := `
		INSERT INTO messages (chat_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, chat_id, sender_id, content, created_at
	`
	var msg domain.Message
	err := r.db.QueryRow(ctx, query, chatID, senderID, content).Scan(
		&msg.ID,
		&msg.ChatID,
		&msg.SenderID,
		&msg.Content,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Helper functions for scanning rows

func scanDeviceToken(row pgx.Row) (*domain.DeviceToken, error) {
	var dt domain.DeviceToken
	var platform string
	err := row.Scan(&dt.UserID, &dt.Token, &platform, &dt.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoDeviceToken
		}
		return nil, err
	}
	dt.Platform = domain.Platform(platform)
	return &dt, nil
}

func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var a domain.Alert
	var kind string
	var raw []byte
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&kind,
		&a.Title,
		&a.Body,
		&raw,
		&a.IsRead,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAlertNotFound
		}
		return nil, err
	}
	a.Kind = domain.AlertKind(kind)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &a.Data); err != nil {
			return nil, fmt.Errorf("decode alert data: %w", err)
		}
	}
	return &a, nil
}
