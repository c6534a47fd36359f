package service

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/url"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/aaravmahajanofficial/storefront/pkg/sendgrid"
	"github.com/google/uuid"
)

type NotificationService interface {
	SendEmail(ctx context.Context, req *models.EmailNotificationRequest) (*models.NotificationResponse, error)
	GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	ListNotifications(ctx context.Context, page int, size int) ([]*models.Notification, int, error)
	SendVerificationEmail(ctx context.Context, user *models.User, token string) error
	SendPasswordResetEmail(ctx context.Context, user *models.User, token string) error
	SendOrderConfirmation(ctx context.Context, user *models.User, order *models.Order) error
}

type notificationService struct {
	repo         repository.NotificationRepository
	emailService sendgrid.EmailService
	baseURL      string
}

func NewNotificationService(repo repository.NotificationRepository, emailService sendgrid.EmailService, baseURL string) NotificationService {
	return &notificationService{repo: repo, emailService: emailService, baseURL: baseURL}
}

// SendEmail records the email, hands it to SendGrid and stores the outcome.
func (n *notificationService) SendEmail(ctx context.Context, req *models.EmailNotificationRequest) (*models.NotificationResponse, error) {

	logger := middleware.LoggerFromContext(ctx)

	notification := &models.Notification{
		ID:        uuid.New(),
		Type:      models.NotificationTypeEmail,
		Recipient: req.Recipient,
		Subject:   req.Subject,
		Content:   req.Content,
		Status:    models.StatusPending,
		Metadata:  req.Metadata,
	}

	if err := n.repo.CreateNotification(ctx, notification); err != nil {
		return nil, errors.DatabaseError("Failed to record notification").WithError(err)
	}

	if err := n.emailService.Send(ctx, req); err != nil {

		notification.Status = models.StatusFailed
		notification.Error = err.Error()

		if updateErr := n.repo.UpdateNotificationStatus(ctx, notification.ID, models.StatusFailed, notification.Error); updateErr != nil {
			logger.Error("Failed to mark notification as failed", slog.String("notificationId", notification.ID.String()), slog.Any("error", updateErr))
		}

		return nil, errors.ThirdPartyError("Failed to send email").WithError(err)
	}

	notification.Status = models.StatusSent

	if err := n.repo.UpdateNotificationStatus(ctx, notification.ID, models.StatusSent, ""); err != nil {
		return nil, errors.DatabaseError("Email sent but failed to update notification status").WithError(err)
	}

	return &models.NotificationResponse{
		ID:        notification.ID,
		Type:      notification.Type,
		Status:    notification.Status,
		Recipient: notification.Recipient,
		CreatedAt: notification.CreatedAt,
	}, nil
}

func (n *notificationService) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {

	notification, err := n.repo.GetNotificationByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFoundError("Notification not found").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to fetch notification").WithError(err)
	}

	return notification, nil
}

func (n *notificationService) ListNotifications(ctx context.Context, page int, size int) ([]*models.Notification, int, error) {

	notifications, total, err := n.repo.ListNotifications(ctx, page, size)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list notifications").WithError(err)
	}

	return notifications, total, nil
}

var (
	verificationTemplate = template.Must(template.New("verify").Parse(
		`<p>Hi {{.Name}},</p><p>Confirm your email address to finish setting up your account.</p>` +
			`<p><a href="{{.Link}}">Verify email</a></p><p>The link expires in 24 hours.</p>`))

	passwordResetTemplate = template.Must(template.New("reset").Parse(
		`<p>Hi {{.Name}},</p><p>We received a request to reset your password.</p>` +
			`<p><a href="{{.Link}}">Reset password</a></p><p>The link expires in 1 hour. If you did not ask for this, ignore this email.</p>`))

	orderConfirmationTemplate = template.Must(template.New("order").Parse(
		`<p>Hi {{.Name}},</p><p>Thanks for your order <strong>{{.Order.OrderNumber}}</strong>. Payment was received.</p>` +
			`<table>{{range .Order.Items}}<tr><td>{{.Name}}</td><td>x{{.Quantity}}</td><td>{{.LineTotal.StringFixed 2}}</td></tr>{{end}}</table>` +
			`<p>Shipping: {{.Order.ShippingCost.StringFixed 2}}<br>Tax: {{.Order.Tax.StringFixed 2}}<br>` +
			`<strong>Total: {{.Order.TotalAmount.StringFixed 2}}</strong></p>`))
)

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (n *notificationService) link(path string, user *models.User, token string) string {
	query := url.Values{}
	query.Set("token", token)
	query.Set("email", user.Email)

	return n.baseURL + path + "?" + query.Encode()
}

func (n *notificationService) SendVerificationEmail(ctx context.Context, user *models.User, token string) error {
	link := n.link("/verify-email", user, token)

	html, err := render(verificationTemplate, map[string]string{"Name": user.Name, "Link": link})
	if err != nil {
		return errors.InternalError("Failed to render email").WithError(err)
	}

	_, err = n.SendEmail(ctx, &models.EmailNotificationRequest{
		Subject:     "Verify your email",
		Content:     "Verify your email address: " + link,
		HTMLContent: html,
		Recipient:   user.Email,
		Metadata:    map[string]string{sendgrid.MetadataKind: "verification", "userId": user.ID.String()},
	})

	return err
}

func (n *notificationService) SendPasswordResetEmail(ctx context.Context, user *models.User, token string) error {
	link := n.link("/reset-password", user, token)

	html, err := render(passwordResetTemplate, map[string]string{"Name": user.Name, "Link": link})
	if err != nil {
		return errors.InternalError("Failed to render email").WithError(err)
	}

	_, err = n.SendEmail(ctx, &models.EmailNotificationRequest{
		Subject:     "Reset your password",
		Content:     "Reset your password: " + link,
		HTMLContent: html,
		Recipient:   user.Email,
		Metadata:    map[string]string{sendgrid.MetadataKind: "password_reset", "userId": user.ID.String()},
	})

	return err
}

func (n *notificationService) SendOrderConfirmation(ctx context.Context, user *models.User, order *models.Order) error {
	html, err := render(orderConfirmationTemplate, map[string]any{"Name": user.Name, "Order": order})
	if err != nil {
		return errors.InternalError("Failed to render email").WithError(err)
	}

	_, err = n.SendEmail(ctx, &models.EmailNotificationRequest{
		Subject:     "Order " + order.OrderNumber + " confirmed",
		Content:     "Your payment for order " + order.OrderNumber + " was received. Total: " + order.TotalAmount.StringFixed(2),
		HTMLContent: html,
		Recipient:   user.Email,
		Metadata: map[string]string{
			sendgrid.MetadataKind: "order_confirmation",
			"orderNumber":         order.OrderNumber,
			"paidAt":              time.Now().UTC().Format(time.RFC3339),
		},
	})

	return err
}
