// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/partnerlink/partnerlink-backend/internal/config"
	"github.com/partnerlink/partnerlink-backend/internal/models"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
)

// Notification types.
const (
	NotificationApplicationSubmitted = "application_submitted"
	NotificationApplicationApproved  = "application_approved"
	NotificationApplicationRejected  = "application_rejected"
	NotificationNewMessage           = "new_message"
)

// Mailer delivers a rendered html email.
type Mailer interface {
	Send(to, subject, body string) error
}

type NotificationService struct {
	db     *gorm.DB
	config *config.Config
	mailer Mailer
	log    logrus.FieldLogger
}

type EmailTemplate struct {
	Subject string
	Body    string
}

type NotificationRequest struct {
	RecipientID         uuid.UUID  `json:"recipient_id" validate:"required"`
	Type                string     `json:"type" validate:"required"`
	Title               string     `json:"title" validate:"required"`
	Message             string     `json:"message" validate:"required"`
	RelatedResourceType string     `json:"related_resource_type,omitempty"`
	RelatedResourceID   *uuid.UUID `json:"related_resource_id,omitempty"`
	SendEmail           bool       `json:"send_email,omitempty"`
}

func NewNotificationService(db *gorm.DB, cfg *config.Config) *NotificationService {
	log := logrus.WithField("component", "notifications")
	return &NotificationService{
		db:     db,
		config: cfg,
		mailer: &smtpMailer{cfg: cfg.Email, log: log},
		log:    log,
	}
}

// WithMailer replaces the SMTP mailer.
func (s *NotificationService) WithMailer(m Mailer) *NotificationService {
	s.mailer = m
	return s
}

// Notify stores an in-app notification and optionally emails the recipient.
// Email failures are logged, never returned.
func (s *NotificationService) Notify(ctx context.Context, req *NotificationRequest) (*models.Notification, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	notification := &models.Notification{
		RecipientID:         req.RecipientID,
		Type:                req.Type,
		Title:               req.Title,
		Message:             req.Message,
		Status:              models.NotificationStatusUnread,
		RelatedResourceType: req.RelatedResourceType,
		RelatedResourceID:   req.RelatedResourceID,
	}
	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if req.SendEmail {
		var recipient models.Account
		if err := s.db.WithContext(ctx).First(&recipient, "id = ?", req.RecipientID).Error; err != nil {
			s.log.WithError(err).WithField("recipient_id", req.RecipientID).Warn("Notification recipient has no account, email skipped")
			return notification, nil
		}
		s.sendTemplated(recipient.Email, req.Type, map[string]interface{}{
			"Name":    recipient.DisplayName,
			"Title":   req.Title,
			"Message": req.Message,
			"URL":     s.config.Frontend.BaseURL,
		})
	}

	return notification, nil
}

// ApplicationSubmitted tells the product vendor about a new application.
// Applications without a product have nobody to notify.
func (s *NotificationService) ApplicationSubmitted(ctx context.Context, app *models.PartnerApplication) error {
	if app.ProductID == nil {
		return nil
	}

	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", *app.ProductID).Error; err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}

	applicant := app.CompanyName
	if applicant == "" {
		applicant = app.Name
	}
	_, err := s.Notify(ctx, &NotificationRequest{
		RecipientID:         product.VendorID,
		Type:                NotificationApplicationSubmitted,
		Title:               "New partner application",
		Message:             fmt.Sprintf("%s applied to partner on %s.", applicant, product.Title),
		RelatedResourceType: "application",
		RelatedResourceID:   &app.ID,
		SendEmail:           true,
	})
	return err
}

// ApplicationReviewed tells the applicant about the vendor's decision.
func (s *NotificationService) ApplicationReviewed(ctx context.Context, app *models.PartnerApplication, productTitle string) error {
	req := &NotificationRequest{
		RecipientID:         app.ApplicantID,
		RelatedResourceType: "application",
		RelatedResourceID:   &app.ID,
		SendEmail:           true,
	}

	switch app.Status {
	case models.ApplicationStatusApproved:
		req.Type = NotificationApplicationApproved
		req.Title = "Application approved"
		req.Message = fmt.Sprintf("Your application to partner on %s was approved.", productTitle)
	case models.ApplicationStatusRejected:
		req.Type = NotificationApplicationRejected
		req.Title = "Application rejected"
		req.Message = fmt.Sprintf("Your application to partner on %s was not accepted.", productTitle)
		if app.ReviewNotes != "" {
			req.Message += " " + app.ReviewNotes
		}
	default:
		return fmt.Errorf("%w: application %s has not been reviewed", ErrInvalidState, app.ID)
	}

	_, err := s.Notify(ctx, req)
	return err
}

// MessageReceived notifies the other participant of a conversation.
func (s *NotificationService) MessageReceived(ctx context.Context, conv *models.Conversation, msg *models.Message) error {
	recipient := conv.PartnerID
	if msg.SenderID == conv.PartnerID {
		recipient = conv.VendorID
	}

	_, err := s.Notify(ctx, &NotificationRequest{
		RecipientID:         recipient,
		Type:                NotificationNewMessage,
		Title:               "New message",
		Message:             preview(msg.Body, 140),
		RelatedResourceType: "conversation",
		RelatedResourceID:   &conv.ID,
	})
	return err
}

func (s *NotificationService) List(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, params utils.PaginationParams) ([]models.Notification, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		query = query.Where("status = ?", models.NotificationStatusUnread)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var notifications []models.Notification
	if err := utils.ApplyPagination(query.Order("created_at desc"), params).Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Updates(map[string]interface{}{"status": models.NotificationStatusRead, "read_at": now})
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("notification %s: %w", notificationID, ErrNotFound)
	}
	return nil
}

func (s *NotificationService) sendTemplated(to, templateType string, data map[string]interface{}) {
	tmpl := s.getEmailTemplate(templateType)
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		s.log.WithError(err).WithField("template", templateType).Error("Failed to render email template")
		return
	}
	if err := s.mailer.Send(to, tmpl.Subject, body); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"to": to, "template": templateType}).Warn("Failed to send email")
	}
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		NotificationApplicationSubmitted: {
			Subject: "New partner application",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>{{.Title}}</h2>
	<p>Hello {{.Name}},</p>
	<p>{{.Message}}</p>
	<a href="{{.URL}}/applications/incoming">Review applications</a>
	<p>Best regards,<br>PartnerLink Team</p>
</body>
</html>`,
		},
		NotificationApplicationApproved: {
			Subject: "Your partner application was approved",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Welcome aboard!</h2>
	<p>Hello {{.Name}},</p>
	<p>{{.Message}}</p>
	<a href="{{.URL}}/partnerships">View your partnerships</a>
	<p>Best regards,<br>PartnerLink Team</p>
</body>
</html>`,
		},
		NotificationApplicationRejected: {
			Subject: "Update on your partner application",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<p>Hello {{.Name}},</p>
	<p>{{.Message}}</p>
	<p>Best regards,<br>PartnerLink Team</p>
</body>
</html>`,
		},
	}

	if tmpl, exists := templates[templateType]; exists {
		return tmpl
	}

	return EmailTemplate{
		Subject: "PartnerLink notification",
		Body:    "<p>{{.Message}}</p>",
	}
}

type smtpMailer struct {
	cfg config.EmailConfig
	log logrus.FieldLogger
}

func (m *smtpMailer) Send(to, subject, body string) error {
	if to == "" {
		return errors.New("missing recipient address")
	}
	if m.cfg.SMTPHost == "" {
		m.log.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("SMTP not configured, email not sent")
		return nil
	}

	auth := smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body))
	addr := fmt.Sprintf("%s:%s", m.cfg.SMTPHost, m.cfg.SMTPPort)
	return smtp.SendMail(addr, auth, m.cfg.FromEmail, []string{to}, msg)
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
