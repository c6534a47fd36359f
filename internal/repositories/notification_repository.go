package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/google/uuid"
)

type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	GetNotificationByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	UpdateNotificationStatus(ctx context.Context, id uuid.UUID, status models.NotificationStatus, errorMsg string) error
	ListNotifications(ctx context.Context, page, size int) ([]*models.Notification, int, error)
}

type notificationRepository struct {
	DB *sql.DB
}

func NewNotificationRepo(db *sql.DB) NotificationRepository {
	return &notificationRepository{DB: db}
}

const notificationColumns = `id, type, recipient, subject, content, status, error_message, metadata, created_at, updated_at`

func scanNotification(row rowScanner) (*models.Notification, error) {
	n := &models.Notification{}

	var metadata []byte

	err := row.Scan(&n.ID, &n.Type, &n.Recipient, &n.Subject, &n.Content, &n.Status, &n.Error, &metadata, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode notification metadata: %w", err)
		}
	}

	if n.Status == models.StatusSent {
		sentAt := n.UpdatedAt
		n.SentAt = &sentAt
	}

	return n, nil
}

func (r *notificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var metadata []byte
	if notification.Metadata != nil {
		var err error
		if metadata, err = json.Marshal(notification.Metadata); err != nil {
			return fmt.Errorf("failed to encode notification metadata: %w", err)
		}
	}

	query := `
		INSERT INTO notifications (id, type, recipient, subject, content, status, error_message, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.DB.QueryRowContext(dbCtx, query, notification.ID, notification.Type, notification.Recipient, notification.Subject,
		notification.Content, notification.Status, notification.Error, metadata).Scan(&notification.CreatedAt, &notification.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

func (r *notificationRepository) GetNotificationByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	n, err := scanNotification(r.DB.QueryRowContext(dbCtx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", mapError(err))
	}

	return n, nil
}

func (r *notificationRepository) UpdateNotificationStatus(ctx context.Context, id uuid.UUID, status models.NotificationStatus, errorMsg string) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE notifications SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.DB.ExecContext(dbCtx, query, status, errorMsg, id)
	if err != nil {
		return fmt.Errorf("failed to update the notification status: %w", err)
	}

	return requireAffected(result, "notification")
}

func (r *notificationRepository) ListNotifications(ctx context.Context, page int, size int) ([]*models.Notification, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int
	if err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM notifications`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := `SELECT ` + notificationColumns + `
		FROM notifications
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(dbCtx, query, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*models.Notification{}

	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notifications: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating over the rows: %w", err)
	}

	return notifications, total, nil
}
