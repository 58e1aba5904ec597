package services

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"google.golang.org/api/option"

	"mess-backend/config"
	"mess-backend/models"
	"mess-backend/storage"
)

// NotificationService fans events out over FCM push and SendGrid email.
// Everything here is best-effort and called from goroutines: the versioned
// summary cache carries the consistency guarantee, pushes are advisory.
type NotificationService struct {
	cfg   *config.Config
	store storage.Store
	fcm   *messaging.Client
}

func NewNotificationService(cfg *config.Config, store storage.Store) *NotificationService {
	ns := &NotificationService{cfg: cfg, store: store}

	app, err := firebase.NewApp(context.Background(), nil, option.WithCredentialsFile(cfg.FirebaseCredPath))
	if err != nil {
		log.Println("⚠️  Firebase not configured, running without push:", err)
		return ns
	}
	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Println("⚠️  FCM client init failed, running without push:", err)
		return ns
	}
	ns.fcm = client
	log.Println("✅ FCM messaging initialized")
	return ns
}

func (ns *NotificationService) sendPush(fcmToken, title, body string, data map[string]string) {
	if ns.fcm == nil || fcmToken == "" {
		return
	}

	msg := &messaging.Message{
		Token: fcmToken,
		Data:  data,
	}
	if title != "" {
		msg.Notification = &messaging.Notification{Title: title, Body: body}
	}

	if _, err := ns.fcm.Send(context.Background(), msg); err != nil {
		log.Printf("⚠️  FCM send failed: %v", err)
	}
}

func (ns *NotificationService) sendEmail(toEmail, toName, subject, htmlBody string) {
	if ns.cfg.SendGridAPIKey == "" {
		log.Printf("⚠️  SendGrid API key not set, skipping email to %s", toEmail)
		return
	}

	from := mail.NewEmail(ns.cfg.AppName, ns.cfg.SendGridFrom)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)

	client := sendgrid.NewSendClient(ns.cfg.SendGridAPIKey)
	resp, err := client.Send(message)
	if err != nil {
		log.Printf("❌ Email send error: %v", err)
		return
	}
	if resp.StatusCode >= 300 {
		log.Printf("⚠️  SendGrid returned status: %d", resp.StatusCode)
	}
}

// SummaryUpdated pushes a data-only message to every active member so
// clients refetch instead of polling. Sent after the synchronous cache
// invalidation has completed.
func (ns *NotificationService) SummaryUpdated(messID uuid.UUID, month, version string) {
	members, err := ns.store.ActiveMembers(context.Background(), messID)
	if err != nil {
		log.Printf("⚠️  SummaryUpdated: roster fetch failed: %v", err)
		return
	}

	data := map[string]string{
		"type":    "summary_updated",
		"mess_id": messID.String(),
		"month":   month,
		"version": version,
	}
	for _, m := range members {
		user, err := ns.store.GetUser(context.Background(), m.UserID)
		if err != nil {
			continue
		}
		ns.sendPush(user.FCMToken, "", "", data)
	}
}

// BazarPending notifies managers that a member's purchase awaits approval.
func (ns *NotificationService) BazarPending(entry models.BazarEntry, buyer models.User, messName string) {
	members, err := ns.store.ActiveMembers(context.Background(), entry.MessID)
	if err != nil {
		return
	}

	title := "Bazar entry needs approval"
	body := fmt.Sprintf("%s logged a bazar of %d.%02d in %s", buyer.Name, entry.Amount/100, entry.Amount%100, messName)
	for _, m := range members {
		manager := false
		for _, r := range m.Roles {
			if r == models.RoleManager || r == models.RoleAdmin {
				manager = true
			}
		}
		if !manager || m.UserID == buyer.ID {
			continue
		}
		user, err := ns.store.GetUser(context.Background(), m.UserID)
		if err != nil {
			continue
		}
		ns.sendPush(user.FCMToken, title, body, map[string]string{
			"type":     "bazar_pending",
			"bazar_id": entry.ID.String(),
			"mess_id":  entry.MessID.String(),
		})
	}
}

// BazarApproved notifies the buyer that their entry now counts.
func (ns *NotificationService) BazarApproved(entry models.BazarEntry, buyer models.User) {
	title := "Bazar entry approved"
	body := fmt.Sprintf("Your bazar of %d.%02d on %s was approved", entry.Amount/100, entry.Amount%100, entry.Date.Format("2006-01-02"))
	ns.sendPush(buyer.FCMToken, title, body, map[string]string{
		"type":     "bazar_approved",
		"bazar_id": entry.ID.String(),
		"mess_id":  entry.MessID.String(),
	})
	ns.sendEmail(buyer.Email, buyer.Name, title, buildBazarApprovedEmailHTML(buyer.Name, entry))
}

// MemberApproved notifies a user that their join request went through.
func (ns *NotificationService) MemberApproved(user models.User, messName string) {
	title := fmt.Sprintf("You joined %s", messName)
	body := fmt.Sprintf("Your request to join %s was approved", messName)
	ns.sendPush(user.FCMToken, title, body, map[string]string{"type": "member_approved"})
	ns.sendEmail(user.Email, user.Name, title, buildMemberApprovedEmailHTML(user.Name, messName))
}

// InvitationEmail invites a non-registered address to join a mess.
func (ns *NotificationService) InvitationEmail(email, inviterName, messName string) {
	subject := fmt.Sprintf("%s invited you to join \"%s\" on %s", inviterName, messName, ns.cfg.AppName)
	ns.sendEmail(email, "", subject, ns.buildInvitationEmailHTML(inviterName, messName))
}

func buildBazarApprovedEmailHTML(name string, entry models.BazarEntry) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h2 style="color: #059669;">Bazar approved</h2>
	<p>Hi <strong>%s</strong>,</p>
	<p>Your bazar entry of <strong>%d.%02d</strong> on %s was approved and now counts toward this month's meal account.</p>
</body>
</html>`, name, entry.Amount/100, entry.Amount%100, entry.Date.Format("2006-01-02"))
}

func buildMemberApprovedEmailHTML(name, messName string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h2 style="color: #059669;">Welcome!</h2>
	<p>Hi <strong>%s</strong>,</p>
	<p>Your request to join <strong>%s</strong> was approved. You are now part of this month's split.</p>
</body>
</html>`, name, messName)
}

func (ns *NotificationService) buildInvitationEmailHTML(inviterName, messName string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h2 style="color: #059669;">You're invited!</h2>
	<p><strong>%s</strong> invited you to join <strong>"%s"</strong> on %s.</p>
	<div style="margin: 24px 0;">
		<a href="%s" style="background: #059669; color: white; padding: 12px 32px; border-radius: 8px; text-decoration: none; font-weight: bold;">Join Now</a>
	</div>
</body>
</html>`, inviterName, messName, ns.cfg.AppName, ns.cfg.AppURL)
}
