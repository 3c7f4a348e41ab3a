package queue

import (
	"fmt"
	"strings"

	"github.com/gestionis/notify-core/internal/domain"
)

// SendTask is the broker payload for message dispatch.
type SendTask struct {
	MessageLogID string         `json:"messageLogId"`
	Channel      domain.Channel `json:"channel"`
}

func (t SendTask) Validate() error {
	if strings.TrimSpace(t.MessageLogID) == "" {
		return fmt.Errorf("messageLogId is required")
	}
	if !t.Channel.IsValid() {
		return fmt.Errorf("invalid channel %q", t.Channel)
	}
	return nil
}
