// Package alerting implements the alert-topic fan-out described in
// spec.md §5's corruption/error-handling notes: every alert is logged,
// and alerts at or above SeverityError are also published to a Redis
// pub/sub topic so an on-call tool can subscribe without polling logs.
package alerting

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/zipcase/internal/models"
)

// Topic is the Redis pub/sub channel alerts are published to.
const Topic = "zipcase:alerts"

// Notifier routes Alerts to logs and, for the severe ones, to Topic.
type Notifier struct {
	client *redis.Client
	logger *logrus.Logger
}

func New(client *redis.Client, logger *logrus.Logger) *Notifier {
	return &Notifier{client: client, logger: logger}
}

// Notify logs every alert and publishes Error/Critical alerts to Topic.
// A publish failure is logged but never returned: alerting must not be
// able to fail the caller's own job processing.
func (n *Notifier) Notify(ctx context.Context, alert models.Alert) {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now().UTC()
	}

	fields := logrus.Fields{
		"category":   alert.Category,
		"userId":     alert.UserID,
		"caseNumber": alert.CaseNumber,
		"searchId":   alert.SearchID,
	}
	entry := n.logger.WithFields(fields)
	switch alert.Severity {
	case models.SeverityCritical, models.SeverityError:
		entry.Error(alert.Message)
	case models.SeverityWarning:
		entry.Warn(alert.Message)
	default:
		entry.Info(alert.Message)
	}

	if alert.Severity < models.SeverityError {
		return
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		n.logger.WithError(err).Warn("alerting: failed to encode alert for publish")
		return
	}
	if err := n.client.Publish(ctx, Topic, payload).Err(); err != nil {
		n.logger.WithError(err).Warn("alerting: failed to publish alert")
	}
}

// PortalDown is a convenience constructor for the recurring "portal
// unreachable" alert raised by the authenticator and the workers.
func PortalDown(userID, message string) models.Alert {
	return models.Alert{
		Category: models.CategoryPortal,
		Severity: models.SeverityError,
		Message:  message,
		UserID:   userID,
	}
}

// Corruption is raised when a CaseSummary or NameSearchData fails its
// well-formedness check twice, per spec.md §8's persistent_corruption path.
func Corruption(caseNumber models.CaseNumber, searchID, message string) models.Alert {
	return models.Alert{
		Category:   models.CategoryDatabase,
		Severity:   models.SeverityCritical,
		Message:    message,
		CaseNumber: caseNumber,
		SearchID:   searchID,
	}
}
