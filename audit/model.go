// audit/model.go
package audit

import (
	"time"
)

// Decision is one authorization verdict as persisted for operators. A
// record is written for every request that reached the rule engine,
// allowed or denied.
type Decision struct {
	DecisionID string    `json:"decision_id"`
	Timestamp  time.Time `json:"timestamp"`
	UserName   string    `json:"user_name"`
	Endpoint   string    `json:"endpoint"`
	Method     string    `json:"method"`
	Allowed    bool      `json:"allowed"`
	Reason     string    `json:"reason,omitempty"`
}
