package webhookcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/security"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/tools/common"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/tools/ui"
)

type options struct {
	apiURL    string
	secret    string
	eventType string
	orderID   string
	ci        bool
	timeout   time.Duration
}

// NewRootCommand builds the webhook delivery checker. It signs a
// synthetic Stripe event with the configured secret and posts it to a
// running API instance, verifying the endpoint acknowledges it. Event ids
// are fresh per run so the dedup ledger never swallows the check.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "webhookcheck",
		Short: "Verify the Stripe webhook endpoint end to end",
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "url", "http://localhost:8080", "base URL of the running API")
	root.PersistentFlags().StringVar(&opts.secret, "secret", "", "webhook signing secret (defaults to STRIPE_WEBHOOK_SECRET)")
	root.PersistentFlags().StringVar(&opts.eventType, "event-type", "payment_intent.succeeded", "event type to deliver")
	root.PersistentFlags().StringVar(&opts.orderID, "order", "", "order id to reference in the event metadata")
	root.PersistentFlags().BoolVar(&opts.ci, "ci", false, "print a machine-readable JSON result instead of the TUI")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "maximum time for the check")

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Deliver one signed test event",
		RunE: func(cmd *cobra.Command, args []string) error {
			action := func(ctx context.Context) ([]string, error) {
				eventID, err := deliverTestEvent(ctx, *opts)
				if err != nil {
					return nil, err
				}
				return []string{fmt.Sprintf("event %s acknowledged", eventID)}, nil
			}
			if opts.ci {
				ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
				defer cancel()
				details, err := action(ctx)
				common.PrintCIResult(err == nil, "webhookcheck run", details, err)
				return err
			}
			return ui.Run("webhookcheck run", func(ctx context.Context) ([]string, error) {
				ctx, cancel := context.WithTimeout(ctx, opts.timeout)
				defer cancel()
				return action(ctx)
			})
		},
	})

	return root
}

func deliverTestEvent(ctx context.Context, opts options) (string, error) {
	endpoint, err := url.JoinPath(opts.apiURL, "/webhooks/stripe")
	if err != nil {
		return "", fmt.Errorf("build endpoint url: %w", err)
	}
	secret := opts.secret
	if secret == "" {
		secret = os.Getenv("STRIPE_WEBHOOK_SECRET")
	}
	if secret == "" {
		return "", fmt.Errorf("webhook secret is required (--secret or STRIPE_WEBHOOK_SECRET)")
	}

	eventID := "evt_check_" + uuid.NewString()
	payload, err := buildTestEvent(eventID, opts.eventType, opts.orderID)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", security.SignPayload(payload, secret, time.Now()))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	var ack struct {
		Received bool `json:"received"`
	}
	if err := json.Unmarshal(body, &ack); err != nil || !ack.Received {
		return "", fmt.Errorf("unexpected acknowledgement: %s", bytes.TrimSpace(body))
	}
	return eventID, nil
}

func buildTestEvent(eventID, eventType, orderID string) ([]byte, error) {
	object := map[string]any{
		"id":       "pi_check_" + uuid.NewString(),
		"metadata": map[string]string{},
	}
	if orderID != "" {
		object["metadata"] = map[string]string{"orderId": orderID}
	}
	return json.Marshal(map[string]any{
		"id":      eventID,
		"type":    eventType,
		"created": time.Now().Unix(),
		"data":    map[string]any{"object": object},
	})
}
