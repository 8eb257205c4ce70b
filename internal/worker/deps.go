package worker

import (
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/zipcase/internal/alerting"
	"github.com/nexconsult/zipcase/internal/portal"
	"github.com/nexconsult/zipcase/internal/queue"
	"github.com/nexconsult/zipcase/internal/store"
)

// Deps bundles everything a worker needs to process a message: the
// stores it reads/writes, the portal client and authenticator, the
// queues it consumes from and enqueues onto, and the alert sink.
type Deps struct {
	CS            *store.CaseStore
	NSS           *store.NameSearchStore
	Auth          *portal.Authenticator
	Client        *portal.Client
	SearchQueue   *queue.SearchQueue
	CaseDataQueue *queue.CaseDataQueue
	Alerts        *alerting.Notifier
	MaxDeliveries int64
	Logger        *logrus.Logger
}
