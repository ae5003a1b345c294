package email

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// SMTPNotifier reports run outcomes by mail; useful for extractions and
// reconstructions long enough to walk away from.
type SMTPNotifier struct {
	host   string
	port   int
	from   string
	to     string
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from, to string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, to: to, logger: logger}
}

func (n *SMTPNotifier) NotifyCompleted(_ context.Context, runID, videoPath string, selected int) error {
	subject := fmt.Sprintf("Photogrammetry CLI - Extraction Completed [Run %s]", runID)
	body := fmt.Sprintf(
		"Frame extraction finished.\r\n\r\n"+
			"Run ID: %s\r\n"+
			"Video: %s\r\n"+
			"Frames selected: %d\r\n",
		runID, videoPath, selected,
	)
	return n.send(runID, subject, body)
}

func (n *SMTPNotifier) NotifyFailed(_ context.Context, runID, videoPath, errorMsg string) error {
	subject := fmt.Sprintf("Photogrammetry CLI - Extraction Failed [Run %s]", runID)
	body := fmt.Sprintf(
		"Frame extraction failed.\r\n\r\n"+
			"Run ID: %s\r\n"+
			"Video: %s\r\n"+
			"Error: %s\r\n\r\n"+
			"Frames written before the failure were kept.\r\n",
		runID, videoPath, errorMsg,
	)
	return n.send(runID, subject, body)
}

func (n *SMTPNotifier) send(runID, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.from, n.to, subject, body,
	)

	if err := smtp.SendMail(addr, nil, n.from, []string{n.to}, []byte(msg)); err != nil {
		n.logger.Error("failed to send notification email",
			zap.String("to", n.to),
			zap.String("run_id", runID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("notification email sent",
		zap.String("to", n.to),
		zap.String("run_id", runID),
	)
	return nil
}
