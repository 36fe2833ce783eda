package mail

import (
	"context"

	"github.com/boardstack/core/internal/infrastructure/logger"
	"github.com/boardstack/core/internal/ports"
)

// LogMailer satisfies the Mailer port by logging instead of delivering.
// Real delivery lives behind the same interface in deployments that
// configure an outbound transport.
type LogMailer struct {
	logger *logger.Logger
}

// NewLogMailer creates a mailer that writes messages to the log.
func NewLogMailer(logger *logger.Logger) ports.Mailer {
	return &LogMailer{logger: logger.WithComponent("mailer")}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.Infow("Outbound mail", "to", to, "subject", subject, "body", body)
	return nil
}
