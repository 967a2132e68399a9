// audit/subscriber.go
package audit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	logger "github.com/workfloworchestrator/oauth2-filter/logging"
	"github.com/workfloworchestrator/oauth2-filter/util"
)

// DecisionEvent is published on the event bus for every verdict the
// filter renders.
const DecisionEvent = "authz.decision"

// Subscribe registers an event-bus handler that persists decision
// events. Handlers run asynchronously, so indexing latency never sits
// on the request path.
func Subscribe(bus *util.EventBus, service Service) {
	bus.Subscribe(DecisionEvent, func(ctx context.Context, event util.Event) error {
		decision, ok := event.Payload.(Decision)
		if !ok {
			return fmt.Errorf("unexpected payload type %T for %s event", event.Payload, DecisionEvent)
		}
		if err := service.LogDecision(ctx, decision); err != nil {
			return fmt.Errorf("failed to persist decision %s: %w", decision.DecisionID, err)
		}
		logger.Debug("Decision persisted",
			zap.String("decisionID", decision.DecisionID),
			zap.Bool("allowed", decision.Allowed))
		return nil
	})
}
