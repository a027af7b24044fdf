package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dyike/StockPilot/internal/session"
)

type stubAssistant struct{}

func (stubAssistant) Run(ctx context.Context, prompt string) (string, error) { return "", nil }

type connectFunc func(ctx context.Context, secret string) (session.Assistant, error)

func (f connectFunc) Connect(ctx context.Context, secret string) (session.Assistant, error) {
	return f(ctx, secret)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "audit.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestInsertAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	for i, provider := range []string{"openai", "deepseek", "gemini"} {
		_, err := s.Insert(ctx, Verification{
			Provider:  provider,
			Model:     "m",
			Duration:  1500 * time.Millisecond,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	recs, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].Provider != "gemini" || recs[1].Provider != "deepseek" {
		t.Fatalf("recent = %+v", recs)
	}
	if recs[0].Status != StatusVerified || recs[0].Duration != 1500*time.Millisecond {
		t.Fatalf("record = %+v", recs[0])
	}
	if !recs[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("created_at = %v", recs[0].CreatedAt)
	}
}

func TestInsertRequiresProvider(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Insert(context.Background(), Verification{Provider: "  "}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := Open(" "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestAuditedConnector(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	inner := connectFunc(func(ctx context.Context, secret string) (session.Assistant, error) {
		switch strings.TrimSpace(secret) {
		case "":
			return nil, errors.New("empty api key")
		case "sk-good":
			return stubAssistant{}, nil
		default:
			return nil, fmt.Errorf("401: incorrect api key %s", strings.TrimSpace(secret))
		}
	})
	c := NewAuditedConnector(inner, s, "openai", "gpt-4o")

	if _, err := c.Connect(ctx, "   "); err == nil {
		t.Fatal("blank secret should fail")
	}
	if h, err := c.Connect(ctx, "sk-good"); err != nil || h == nil {
		t.Fatalf("Connect() = %v, %v", h, err)
	}
	if _, err := c.Connect(ctx, " sk-bad-123 "); err == nil {
		t.Fatal("bad secret should fail")
	}

	recs, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, blank secrets must not be logged", len(recs))
	}
	byStatus := map[string]Verification{}
	for _, r := range recs {
		byStatus[r.Status] = r
	}
	if r := byStatus[StatusVerified]; r.Provider != "openai" || r.Model != "gpt-4o" || r.Error != "" {
		t.Fatalf("verified record = %+v", r)
	}
	r := byStatus[StatusRejected]
	if strings.Contains(r.Error, "sk-bad-123") || !strings.Contains(r.Error, "[REDACTED]") {
		t.Fatalf("rejected record leaks the secret: %+v", r)
	}
}
