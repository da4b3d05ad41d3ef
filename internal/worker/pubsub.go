package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Job types accepted on the subscription.
const (
	JobReadingRefresh = "reading_refresh"
	JobHealthCheck    = "health_check"
)

var (
	// ErrUnknownJob is returned for a message with an unrecognized job type.
	ErrUnknownJob = errors.New("unknown job type")

	// ErrMalformedMessage is returned for a message that is not a valid job.
	ErrMalformedMessage = errors.New("malformed job message")
)

// JobMessage is the body of a worker job message.
type JobMessage struct {
	JobType string `json:"job_type"`

	// Time selects the hour to refresh. Empty means the current hour.
	Time *time.Time `json:"time,omitempty"`

	// PlantIDs limits the refresh to these plants.
	PlantIDs []int64 `json:"plant_ids,omitempty"`
}

// Dispatch runs the job described by data. Malformed and unknown messages
// return ErrMalformedMessage and ErrUnknownJob; redelivering them cannot
// succeed.
func (j *RefreshJob) Dispatch(ctx context.Context, data []byte) error {
	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	switch msg.JobType {
	case JobReadingRefresh:
		req := RefreshRequest{PlantIDs: msg.PlantIDs}
		if msg.Time != nil {
			req.At = *msg.Time
		}
		result, err := j.RunFor(ctx, req)
		if err != nil {
			return err
		}
		// Consider it successful if at least half succeeded.
		if result.Failed > result.TotalPlants/2 {
			return fmt.Errorf("too many refresh failures: %d/%d", result.Failed, result.TotalPlants)
		}
		return nil
	case JobHealthCheck:
		return j.HealthCheck(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJob, msg.JobType)
	}
}

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	refreshJob       *RefreshJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	RefreshJob       *RefreshJob
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Refresh runs are heavy; take a few at a time and allow long extensions.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 4
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		refreshJob:       cfg.RefreshJob,
		logger:           cfg.Logger,
	}, nil
}

// Start processes Pub/Sub messages until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if h.handle(ctx, msg.ID, msg.PublishTime, msg.Data) {
			msg.Ack()
		} else {
			msg.Nack()
		}
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// handle runs one message and reports whether to ack it.
func (h *PubSubHandler) handle(ctx context.Context, id string, published time.Time, data []byte) bool {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", id).
		Str("publish_time", published.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	err := h.refreshJob.Dispatch(ctx, data)
	switch {
	case errors.Is(err, ErrMalformedMessage), errors.Is(err, ErrUnknownJob):
		logger.Warn().Err(err).Msg("dropping job message")
		return true
	case err != nil:
		logger.Error().Err(err).Msg("job failed")
		return false
	}

	logger.Info().
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")
	return true
}
