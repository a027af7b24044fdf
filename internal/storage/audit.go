package storage

import (
	"context"
	"strings"
	"time"

	"github.com/dyike/StockPilot/internal/logger"
	"github.com/dyike/StockPilot/internal/session"
)

type Connector interface {
	Connect(ctx context.Context, secret string) (session.Assistant, error)
}

// AuditedConnector logs every verification attempt of the wrapped Connector
// to a Store. Blank secrets are not logged since nothing is attempted. A
// failed write is logged and never changes the Connect result.
type AuditedConnector struct {
	inner    Connector
	store    *Store
	provider string
	model    string
	now      func() time.Time
}

func NewAuditedConnector(inner Connector, store *Store, provider, model string) *AuditedConnector {
	return &AuditedConnector{
		inner:    inner,
		store:    store,
		provider: provider,
		model:    model,
		now:      time.Now,
	}
}

func (c *AuditedConnector) Connect(ctx context.Context, secret string) (session.Assistant, error) {
	start := c.now()
	handle, err := c.inner.Connect(ctx, secret)

	secret = strings.TrimSpace(secret)
	if secret == "" {
		return handle, err
	}

	rec := Verification{
		Provider:  c.provider,
		Model:     c.model,
		Status:    StatusVerified,
		Duration:  c.now().Sub(start),
		CreatedAt: start,
	}
	if err != nil || handle == nil {
		rec.Status = StatusRejected
	}
	if err != nil {
		rec.Error = strings.ReplaceAll(err.Error(), secret, "[REDACTED]")
	}
	if _, serr := c.store.Insert(context.WithoutCancel(ctx), rec); serr != nil {
		logger.Log.Warnf("record verification: %v", serr)
	}
	return handle, err
}
