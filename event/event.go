package event

import (
	"time"

	"github.com/venu630/bequest/id"
)

// Well-known event names.
const (
	// NameFundsDisbursed is published when the will contract releases a
	// beneficiary's share.
	NameFundsDisbursed = "funds.disbursed"

	// NameWillSubmitted is published after a finished allocation was
	// accepted by the ledger.
	NameWillSubmitted = "will.submitted"
)

// Event represents a named event published to the event bus. The
// disbursement listener consumes events from the bus when no external
// broker is configured.
type Event struct {
	ID        id.EventID `json:"id"`
	Name      string     `json:"name"`
	Payload   []byte     `json:"payload,omitempty"`
	Source    string     `json:"source,omitempty"`
	Acked     bool       `json:"acked"`
	CreatedAt time.Time  `json:"created_at"`
}
