package service

import (
	"context"
	"encoding/json"
	"time"

	"line-intake-bot/internal/dto"
	"line-intake-bot/internal/pkg/logger"
	"line-intake-bot/internal/repository"
	"line-intake-bot/pkg/events"
	"line-intake-bot/pkg/sheets"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// sheetSink delivers synchronously, before the closing reply goes out.
type sheetSink struct {
	sheet sheets.Submitter
}

func NewSheetSink(sheet sheets.Submitter) SubmissionSink {
	return &sheetSink{sheet: sheet}
}

func (s *sheetSink) Deliver(ctx context.Context, msg *dto.SubmissionMessage) (bool, error) {
	if err := s.sheet.Submit(ctx, msg.UserID, msg.Fields); err != nil {
		return false, err
	}
	return true, nil
}

// IDeliveryService is the queued submit mode: records are enqueued on
// an in-process channel and a background consumer pushes them to the
// spreadsheet with retries. The user's closing reply never waits on the
// spreadsheet.
type IDeliveryService interface {
	SubmissionSink
	Consume(ctx context.Context) error
}

type deliveryService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	sheet       sheets.Submitter
	archive     repository.SubmissionRepository // nil disables status tracking
	eventsPub   EventPublisher                  // nil disables bus events
	maxAttempts int
	logger      logger.ILogger
}

func NewDeliveryService(
	pubSub *gochannel.GoChannel,
	topicName string,
	sheet sheets.Submitter,
	archive repository.SubmissionRepository,
	eventsPub EventPublisher,
	maxAttempts int,
	sysLogger logger.ILogger,
) IDeliveryService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &deliveryService{
		pubSub:      pubSub,
		topicName:   topicName,
		sheet:       sheet,
		archive:     archive,
		eventsPub:   eventsPub,
		maxAttempts: maxAttempts,
		logger:      sysLogger,
	}
}

func (ds *deliveryService) Deliver(_ context.Context, msg *dto.SubmissionMessage) (bool, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return false, err
	}
	if err := ds.pubSub.Publish(ds.topicName, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		return false, err
	}
	// Enqueued, not yet on the sheet.
	return false, nil
}

func (ds *deliveryService) Consume(ctx context.Context) error {
	messages, err := ds.pubSub.Subscribe(ctx, ds.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			ds.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (ds *deliveryService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.SubmissionMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		ds.logger.Error("delivery", "Failed to unmarshal submission message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // invalid payloads would retry forever
		return
	}

	var lastErr error
	for attempt := 1; attempt <= ds.maxAttempts; attempt++ {
		lastErr = ds.sheet.Submit(ctx, payload.UserID, payload.Fields)
		if lastErr == nil {
			ds.markDelivered(ctx, &payload, attempt)
			msg.Ack()
			return
		}
		ds.logger.Warn("delivery", "Sheet submit attempt failed", map[string]interface{}{
			"submission_id": payload.SubmissionID.String(),
			"attempt":       attempt,
			"error":         lastErr.Error(),
		})
		if attempt < ds.maxAttempts {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}

	// Exhausted: park in the archive for manual resubmission.
	ds.logger.Error("delivery", "Submission delivery gave up", map[string]interface{}{
		"submission_id": payload.SubmissionID.String(),
		"attempts":      ds.maxAttempts,
		"error":         lastErr.Error(),
	})
	if ds.archive != nil {
		if err := ds.archive.MarkFailed(ctx, payload.SubmissionID, ds.maxAttempts, lastErr.Error()); err != nil {
			ds.logger.Error("delivery", "Failed to mark submission failed", map[string]interface{}{
				"submission_id": payload.SubmissionID.String(),
				"error":         err.Error(),
			})
		}
	}
	msg.Ack()
}

func (ds *deliveryService) markDelivered(ctx context.Context, payload *dto.SubmissionMessage, attempts int) {
	if ds.archive != nil {
		if err := ds.archive.MarkDelivered(ctx, payload.SubmissionID, attempts); err != nil {
			ds.logger.Error("delivery", "Failed to mark submission delivered", map[string]interface{}{
				"submission_id": payload.SubmissionID.String(),
				"error":         err.Error(),
			})
		}
	}
	if ds.eventsPub != nil {
		event := events.IntakeDelivered{
			SubmissionID: payload.SubmissionID.String(),
			UserID:       payload.UserID,
			Attempts:     attempts,
			OccurredAt:   time.Now(),
		}
		if err := ds.eventsPub.Publish(ctx, event); err != nil {
			ds.logger.Warn("delivery", "Failed to publish delivered event", map[string]interface{}{
				"submission_id": payload.SubmissionID.String(),
				"error":         err.Error(),
			})
		}
	}
}
