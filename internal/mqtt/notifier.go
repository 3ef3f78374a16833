package mqtt

import (
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// Notifier tells screens that a document they read has changed.
type Notifier struct {
	client paho.Client
}

// NewNotifier returns a notifier; a nil client turns it into a no-op.
func NewNotifier(client paho.Client) *Notifier {
	return &Notifier{client: client}
}

// Notify is fire-and-forget. Screens fall back to polling when a notification is lost.
func (n *Notifier) Notify(adminID, kind, id string) {
	if n == nil || n.client == nil {
		return
	}
	topic := ChangeTopic(adminID, kind, id)
	token := n.client.Publish(topic, 0, false, []byte{})
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Warn().Err(token.Error()).Str("topic", topic).Msg("failed to publish change notification")
		}
	}()
}
