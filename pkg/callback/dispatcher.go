package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-affairs-gateway/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const topicName = "CHAT_TURN_CALLBACK"

// Dispatcher ships turn notifications to an external callback URL. Dispatch
// only enqueues; delivery happens on a subscriber goroutine so the chat
// response never waits on the receiver. Delivery failures are logged and
// dropped, a turn must never fail because the callback receiver is down.
type Dispatcher struct {
	enabled bool
	url     string
	client  *http.Client
	pubSub  *gochannel.GoChannel
	log     logger.ILogger
}

func NewDispatcher(enabled bool, url string, pubSub *gochannel.GoChannel, log logger.ILogger) *Dispatcher {
	return &Dispatcher{
		enabled: enabled,
		url:     url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		pubSub: pubSub,
		log:    log,
	}
}

// Start subscribes the delivery worker. The worker runs until ctx is
// cancelled or the pubsub is closed.
func (d *Dispatcher) Start(ctx context.Context) error {
	if !d.enabled {
		d.log.Info("callback", "Callback dispatch disabled by configuration", nil)
		return nil
	}

	messages, err := d.pubSub.Subscribe(ctx, topicName)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topicName, err)
	}

	go func() {
		for msg := range messages {
			d.deliver(ctx, msg)
		}
	}()

	return nil
}

// Dispatch enqueues a notification. It is a no-op when dispatch is disabled
// and never returns delivery errors to the caller.
func (d *Dispatcher) Dispatch(payload interface{}) {
	if !d.enabled {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		d.log.Error("callback", "Failed to marshal callback payload", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	if err := d.pubSub.Publish(topicName, msg); err != nil {
		d.log.Error("callback", "Failed to enqueue callback", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg *message.Message) {
	// Ack unconditionally: a callback is fire-and-forget, retrying against a
	// dead receiver would only back the queue up.
	defer msg.Ack()

	req, err := http.NewRequestWithContext(ctx, "POST", d.url, bytes.NewReader(msg.Payload))
	if err != nil {
		d.log.Error("callback", "Failed to build callback request", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.log.Warn("callback", "Callback delivery failed", map[string]interface{}{
			"url":   d.url,
			"error": err.Error(),
		})
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		d.log.Warn("callback", "Callback receiver returned non-success status", map[string]interface{}{
			"url":    d.url,
			"status": resp.StatusCode,
		})
		return
	}

	d.log.Info("callback", "Callback delivered", map[string]interface{}{
		"url": d.url,
	})
}
