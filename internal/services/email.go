package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"

	"github.com/wayfarerhq/wayfarer/internal/config"
	"github.com/wayfarerhq/wayfarer/internal/logging"
)

const VerificationTokenExpiry = 24 * time.Hour

// Email represents an email to be sent
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// EmailProvider is the interface for sending emails
type EmailProvider interface {
	Send(ctx context.Context, email *Email) error
}

// EmailService handles verification email delivery and token bookkeeping.
type EmailService struct {
	provider    EmailProvider
	db          DB
	fromAddress string
	fromName    string
	baseURL     string
}

func NewEmailService(cfg *config.EmailConfig, db DB) *EmailService {
	var provider EmailProvider

	switch cfg.Provider {
	case "resend":
		provider = NewResendProvider(cfg.ResendAPIKey, cfg.FromName, cfg.FromAddress)
	default:
		provider = NewConsoleProvider()
	}

	return &EmailService{
		provider:    provider,
		db:          db,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		baseURL:     cfg.BaseURL,
	}
}

// GenerateToken creates a secure random token and returns both the token and its hash
func GenerateToken() (token string, hash string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", fmt.Errorf("generating random bytes: %w", err)
	}
	token = hex.EncodeToString(bytes)
	hash = HashToken(token)
	return token, hash, nil
}

// HashToken creates a SHA256 hash of a token
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// SendVerificationEmail sends an email verification link
func (s *EmailService) SendVerificationEmail(ctx context.Context, userID uuid.UUID, email string) error {
	token, tokenHash, err := GenerateToken()
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(VerificationTokenExpiry)
	_, err = s.db.Exec(ctx,
		`INSERT INTO email_verification_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3)`,
		userID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("storing verification token: %w", err)
	}

	verifyURL := fmt.Sprintf("%s/#verify-email?token=%s", s.baseURL, token)

	html, text := s.renderVerificationEmail(verifyURL)

	return s.provider.Send(ctx, &Email{
		To:      email,
		Subject: "Verify your Wayfarer account",
		HTML:    html,
		Text:    text,
	})
}

// VerifyEmail verifies an email using a token and returns the user id.
func (s *EmailService) VerifyEmail(ctx context.Context, token string) (uuid.UUID, error) {
	tokenHash := HashToken(token)

	var userID uuid.UUID
	var expiresAt time.Time
	err := s.db.QueryRow(ctx,
		`SELECT user_id, expires_at FROM email_verification_tokens WHERE token_hash = $1`,
		tokenHash).Scan(&userID, &expiresAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid verification token")
	}

	if time.Now().After(expiresAt) {
		return uuid.Nil, fmt.Errorf("verification token has expired")
	}

	_, err = s.db.Exec(ctx,
		`UPDATE users SET email_verified = true, updated_at = NOW() WHERE id = $1`,
		userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("updating user verification status: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`DELETE FROM email_verification_tokens WHERE user_id = $1`,
		userID)
	if err != nil {
		logging.Error("Failed to delete verification tokens", map[string]interface{}{"error": err.Error(), "user_id": userID.String()})
	}

	return userID, nil
}

func (s *EmailService) renderVerificationEmail(verifyURL string) (html, text string) {
	html = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #333; font-size: 24px;">Welcome to Wayfarer!</h1>

  <p>Please verify your email address by clicking the button below:</p>

  <a href="%s"
     style="display: inline-block; background: #0E7490; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 20px 0;">
    Verify Email Address
  </a>

  <p style="color: #666; font-size: 14px;">
    This link expires in 24 hours. If you didn't create an account, you can ignore this email.
  </p>

  <p style="color: #666; font-size: 14px;">
    Or copy this link: %s
  </p>

  <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
  <p style="color: #999; font-size: 12px;">Wayfarer - plan the trip, keep the wonder</p>
</body>
</html>`, verifyURL, verifyURL)

	text = fmt.Sprintf(`Welcome to Wayfarer!

Please verify your email address by visiting:
%s

This link expires in 24 hours.

If you didn't create an account, you can ignore this email.

--
Wayfarer`, verifyURL)

	return html, text
}

// ResendProvider sends emails using the Resend API
type ResendProvider struct {
	client *resend.Client
	from   string
}

func NewResendProvider(apiKey, fromName, fromAddress string) *ResendProvider {
	return &ResendProvider{
		client: resend.NewClient(apiKey),
		from:   fmt.Sprintf("%s <%s>", fromName, fromAddress),
	}
}

func (p *ResendProvider) Send(ctx context.Context, email *Email) error {
	params := &resend.SendEmailRequest{
		From:    p.from,
		To:      []string{email.To},
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	}

	_, err := p.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("sending email via Resend: %w", err)
	}

	logging.Info("Email sent via Resend", map[string]interface{}{"to": email.To, "subject": email.Subject})
	return nil
}

// ConsoleProvider logs emails to console (for development)
type ConsoleProvider struct{}

func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

func (p *ConsoleProvider) Send(ctx context.Context, email *Email) error {
	logging.Info("=== EMAIL (Console Provider) ===", map[string]interface{}{"to": email.To, "subject": email.Subject})
	fmt.Printf("\n=== EMAIL ===\n")
	fmt.Printf("To: %s\n", email.To)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("---\n")
	fmt.Printf("%s\n", email.Text)
	fmt.Printf("=============\n\n")
	return nil
}
