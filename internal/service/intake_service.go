package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"line-intake-bot/internal/dto"
	"line-intake-bot/internal/entity"
	"line-intake-bot/internal/pkg/keylock"
	"line-intake-bot/internal/pkg/logger"
	"line-intake-bot/internal/pkg/mailer"
	"line-intake-bot/internal/repository"
	"line-intake-bot/pkg/events"
	"line-intake-bot/pkg/line"
	"line-intake-bot/pkg/survey"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const closingText = "ご回答ありがとうございました！\n\n以下があなたの回答内容です：\n\n"

// SubmissionSink is where completed records go. Deliver reports whether
// the record has already reached the spreadsheet (sync sink) or was
// only enqueued for the delivery worker (queue sink).
type SubmissionSink interface {
	Deliver(ctx context.Context, msg *dto.SubmissionMessage) (delivered bool, err error)
}

// EventPublisher is the bus capability; satisfied by the NATS publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IIntakeService interface {
	// HandleWebhook processes one verified webhook delivery. Per-event
	// failures are logged, never propagated: the webhook always gets
	// its 200 so the platform does not re-deliver the batch.
	HandleWebhook(ctx context.Context, req *dto.WebhookRequest) error
}

type intakeService struct {
	engine    *survey.Engine
	renderer  *survey.Renderer
	messenger line.Messenger
	sink      SubmissionSink
	archive   repository.SubmissionRepository // nil disables archiving
	eventsPub EventPublisher                  // nil disables bus events
	mail      mailer.IEmailService            // nil disables notices
	notifyTo  string
	locks     *keylock.KeyedMutex
	logger    logger.ILogger
}

func NewIntakeService(
	engine *survey.Engine,
	renderer *survey.Renderer,
	messenger line.Messenger,
	sink SubmissionSink,
	archive repository.SubmissionRepository,
	eventsPub EventPublisher,
	mail mailer.IEmailService,
	notifyTo string,
	sysLogger logger.ILogger,
) IIntakeService {
	return &intakeService{
		engine:    engine,
		renderer:  renderer,
		messenger: messenger,
		sink:      sink,
		archive:   archive,
		eventsPub: eventsPub,
		mail:      mail,
		notifyTo:  notifyTo,
		locks:     keylock.New(),
		logger:    sysLogger,
	}
}

func (s *intakeService) HandleWebhook(ctx context.Context, req *dto.WebhookRequest) error {
	for i := range req.Events {
		ev := &req.Events[i]
		if err := s.handleEvent(ctx, ev); err != nil {
			s.logger.Error("intake", "Event processing failed", map[string]interface{}{
				"user_id": ev.Source.UserID,
				"error":   err.Error(),
			})
		}
	}
	return nil
}

func (s *intakeService) handleEvent(ctx context.Context, ev *dto.WebhookEvent) error {
	if ev.Type != "message" || ev.Message == nil {
		return nil
	}
	userID := ev.Source.UserID
	if userID == "" {
		return nil
	}

	var in survey.Inbound
	switch ev.Message.Type {
	case "text":
		in = survey.Inbound{Kind: survey.InboundText, Text: ev.Message.Text}
	case "image":
		in = survey.Inbound{Kind: survey.InboundImage, MessageID: ev.Message.ID}
	default:
		// Stickers, video, location: nothing the survey can consume.
		return nil
	}

	// Rapid double-sends must not race on session state.
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	out, err := s.engine.HandleTurn(ctx, userID, in)
	if err != nil {
		return err
	}

	switch out.Kind {
	case survey.OutcomeNextPrompt:
		prompt := s.renderer.Render(*out.Question, out.Freeform)
		return s.send(ctx, ev, []survey.Prompt{prompt})

	case survey.OutcomeRejected:
		if out.Err != nil {
			s.logger.Warn("intake", "Answer absorbed a collaborator failure", map[string]interface{}{
				"user_id": userID,
				"reason":  out.Reason,
				"error":   out.Err.Error(),
			})
		}
		return s.send(ctx, ev, s.renderer.RenderRejected(*out.Question, out.Reason))

	case survey.OutcomeCompleted:
		return s.finalize(ctx, ev, out.Record)

	default:
		return fmt.Errorf("unknown outcome %q", out.Kind)
	}
}

// finalize persists and acknowledges a completed survey. The closing
// reply is sent regardless of persistence outcome; a failed delivery is
// logged and parked in the archive for manual resubmission.
func (s *intakeService) finalize(ctx context.Context, ev *dto.WebhookEvent, record *survey.Record) error {
	msg := &dto.SubmissionMessage{
		SubmissionID: uuid.New(),
		UserID:       record.UserID,
		Fields:       record.FieldMap(),
		SubmittedAt:  record.SubmittedAt,
	}

	s.archiveCreate(ctx, msg)

	delivered, err := s.sink.Deliver(ctx, msg)
	switch {
	case err != nil:
		s.logger.Error("intake", "Submission delivery failed", map[string]interface{}{
			"submission_id": msg.SubmissionID.String(),
			"user_id":       msg.UserID,
			"error":         err.Error(),
		})
		s.archiveMarkFailed(ctx, msg, err)
	case delivered:
		s.archiveMarkDelivered(ctx, msg)
	}

	s.publishCompleted(ctx, msg)
	s.mailNotice(msg, record)

	ack := line.TextMessage(closingText + strings.Join(s.summaryLines(record), "\n\n"))
	if err := s.messenger.Send(ctx, ev.ReplyToken, record.UserID, []line.Message{ack}); err != nil {
		return fmt.Errorf("send closing acknowledgement: %w", err)
	}

	s.logger.Info("intake", "Survey completed", map[string]interface{}{
		"submission_id": msg.SubmissionID.String(),
		"user_id":       msg.UserID,
		"fields":        len(record.Fields),
	})
	return nil
}

// summaryLines echoes the answers back in catalog order, one block per
// question, the way the original bot confirmed submissions.
func (s *intakeService) summaryLines(record *survey.Record) []string {
	catalog := s.engine.Catalog()
	lines := make([]string, 0, len(record.Fields))
	for _, field := range record.Fields {
		pos := catalog.IndexOf(field.Key)
		if pos < 0 {
			continue
		}
		q := catalog.At(pos)
		value := field.Value
		if q.Modality == survey.ModalityImage {
			value = "（画像）"
		}
		lines = append(lines, fmt.Sprintf("【%s】\n%s", strings.TrimSuffix(q.Prompt, "："), value))
	}
	return lines
}

func (s *intakeService) send(ctx context.Context, ev *dto.WebhookEvent, prompts []survey.Prompt) error {
	msgs := make([]line.Message, 0, len(prompts))
	for _, p := range prompts {
		msgs = append(msgs, line.QuickReplyMessage(p.Text, p.Options))
	}
	return s.messenger.Send(ctx, ev.ReplyToken, ev.Source.UserID, msgs)
}

func (s *intakeService) archiveCreate(ctx context.Context, msg *dto.SubmissionMessage) {
	if s.archive == nil {
		return
	}
	fields, err := json.Marshal(msg.Fields)
	if err != nil {
		s.logger.Error("intake", "Failed to encode submission fields", map[string]interface{}{"error": err.Error()})
		return
	}
	err = s.archive.Create(ctx, &entity.Submission{
		ID:          msg.SubmissionID,
		UserID:      msg.UserID,
		Fields:      datatypes.JSON(fields),
		Status:      string(entity.DeliveryStatusPending),
		SubmittedAt: msg.SubmittedAt,
	})
	if err != nil {
		s.logger.Error("intake", "Failed to archive submission", map[string]interface{}{
			"submission_id": msg.SubmissionID.String(),
			"error":         err.Error(),
		})
	}
}

func (s *intakeService) archiveMarkDelivered(ctx context.Context, msg *dto.SubmissionMessage) {
	if s.archive == nil {
		return
	}
	if err := s.archive.MarkDelivered(ctx, msg.SubmissionID, 1); err != nil {
		s.logger.Error("intake", "Failed to mark submission delivered", map[string]interface{}{
			"submission_id": msg.SubmissionID.String(),
			"error":         err.Error(),
		})
	}
}

func (s *intakeService) archiveMarkFailed(ctx context.Context, msg *dto.SubmissionMessage, cause error) {
	if s.archive == nil {
		return
	}
	if err := s.archive.MarkFailed(ctx, msg.SubmissionID, 1, cause.Error()); err != nil {
		s.logger.Error("intake", "Failed to mark submission failed", map[string]interface{}{
			"submission_id": msg.SubmissionID.String(),
			"error":         err.Error(),
		})
	}
}

func (s *intakeService) publishCompleted(ctx context.Context, msg *dto.SubmissionMessage) {
	if s.eventsPub == nil {
		return
	}
	event := events.IntakeCompleted{
		SubmissionID: msg.SubmissionID.String(),
		UserID:       msg.UserID,
		Fields:       msg.Fields,
		OccurredAt:   time.Now(),
	}
	if err := s.eventsPub.Publish(ctx, event); err != nil {
		s.logger.Warn("intake", "Failed to publish intake event", map[string]interface{}{
			"submission_id": msg.SubmissionID.String(),
			"error":         err.Error(),
		})
	}
}

func (s *intakeService) mailNotice(msg *dto.SubmissionMessage, record *survey.Record) {
	if s.mail == nil || s.notifyTo == "" {
		return
	}
	if err := s.mail.SendIntakeNotice(s.notifyTo, msg.UserID, s.summaryLines(record)); err != nil {
		s.logger.Warn("intake", "Failed to send intake notice mail", map[string]interface{}{
			"submission_id": msg.SubmissionID.String(),
			"error":         err.Error(),
		})
	}
}
