package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeProvider struct {
	sent []*Email
	err  error
}

func (p *fakeProvider) Send(ctx context.Context, email *Email) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, email)
	return nil
}

func TestGenerateToken(t *testing.T) {
	token, hash, err := GenerateToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token should be 64 hex chars, got %d", len(token))
	}
	if HashToken(token) != hash {
		t.Error("hash should be reproducible from token")
	}
}

func TestEmailService_SendVerificationEmail(t *testing.T) {
	var insertSQL string
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			insertSQL = sql
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	provider := &fakeProvider{}
	service := &EmailService{
		provider: provider,
		db:       db,
		baseURL:  "https://wayfarer.test",
	}

	err := service.SendVerificationEmail(context.Background(), uuid.New(), "new@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(insertSQL, "email_verification_tokens") {
		t.Fatalf("expected token insert, got %q", insertSQL)
	}
	if len(provider.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(provider.sent))
	}
	sent := provider.sent[0]
	if sent.To != "new@example.com" {
		t.Errorf("unexpected recipient %q", sent.To)
	}
	if !strings.Contains(sent.Text, "https://wayfarer.test/#verify-email?token=") {
		t.Errorf("verification link missing from body:\n%s", sent.Text)
	}
}

func TestEmailService_VerifyEmail_Success(t *testing.T) {
	userID := uuid.New()
	var execs []string
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(userID, time.Now().Add(time.Hour))
		},
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			execs = append(execs, sql)
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	service := &EmailService{db: db, provider: &fakeProvider{}}

	got, err := service.VerifyEmail(context.Background(), "sometoken")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != userID {
		t.Fatalf("expected user %v, got %v", userID, got)
	}
	if len(execs) != 2 {
		t.Fatalf("expected verify update plus token cleanup, got %d execs", len(execs))
	}
	if !strings.Contains(execs[0], "email_verified = true") {
		t.Fatalf("first exec should mark user verified, got %q", execs[0])
	}
}

func TestEmailService_VerifyEmail_Expired(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(uuid.New(), time.Now().Add(-time.Hour))
		},
	}
	service := &EmailService{db: db, provider: &fakeProvider{}}

	if _, err := service.VerifyEmail(context.Background(), "expired"); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestConsoleProvider_Send(t *testing.T) {
	provider := NewConsoleProvider()
	err := provider.Send(context.Background(), &Email{
		To:      "dev@example.com",
		Subject: "Test",
		Text:    "Body",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
