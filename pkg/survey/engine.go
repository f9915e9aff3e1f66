package survey

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// InboundKind is the modality of an inbound message payload.
type InboundKind string

const (
	InboundText  InboundKind = "text"
	InboundImage InboundKind = "image"
)

// Inbound is one answer event, already stripped of transport details.
type Inbound struct {
	Kind InboundKind

	// Text is the message text for InboundText.
	Text string

	// MessageID identifies the binary payload for InboundImage; the
	// engine resolves it through the MediaFetcher.
	MessageID string
}

// OutcomeKind classifies the single outcome of a turn.
type OutcomeKind string

const (
	// OutcomeNextPrompt asks the next question (or the manual-entry
	// sub-dialog prompt when Freeform is set).
	OutcomeNextPrompt OutcomeKind = "next_prompt"

	// OutcomeRejected re-asks the active question without advancing.
	OutcomeRejected OutcomeKind = "rejected"

	// OutcomeCompleted carries the finalized record; the session has
	// already been removed from the store.
	OutcomeCompleted OutcomeKind = "completed"
)

// Reject reasons, used by the renderer to pick a reminder text.
const (
	RejectUnknownChoice = "unknown_choice"
	RejectNotImage      = "not_image"
	RejectNotText       = "not_text"
	RejectMediaFetch    = "media_fetch_failed"
)

// Record is the flat answer set handed to the storage collaborator.
// Fields preserve catalog order.
type Record struct {
	UserID      string
	SubmittedAt time.Time
	Fields      []Answer
}

// FieldMap flattens the record for collaborators that want key/value pairs.
func (r *Record) FieldMap() map[string]string {
	m := make(map[string]string, len(r.Fields))
	for _, f := range r.Fields {
		m[f.Key] = f.Value
	}
	return m
}

// Outcome is the exactly-one result of a turn.
type Outcome struct {
	Kind OutcomeKind

	// Question is set for NextPrompt and Rejected.
	Question *Question

	// Freeform marks the manual-entry sub-dialog prompt after the
	// escape option was picked.
	Freeform bool

	// Reason is set for Rejected.
	Reason string

	// Err carries a collaborator failure that was absorbed into a
	// re-prompt (media fetch). The session is untouched in that case.
	Err error

	// Record is set for Completed.
	Record *Record
}

// MediaFetcher resolves an image message into the stored answer token.
// A failure must leave the turn without effect.
type MediaFetcher interface {
	Fetch(ctx context.Context, messageID string) (string, error)
}

// Engine walks users through the catalog one turn at a time. All state
// lives in the repository; the engine itself is stateless and safe for
// concurrent use as long as turns for the same user are serialized by
// the caller.
type Engine struct {
	catalog  *Catalog
	sessions Repository
	media    MediaFetcher
	pickers  PickerConfig

	// RestartKeywords reset the survey when contained in a text
	// message, matching the original bot's 登録/やり直し commands.
	restartKeywords []string

	now func() time.Time
}

type EngineOption func(*Engine)

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func WithRestartKeywords(keywords ...string) EngineOption {
	return func(e *Engine) { e.restartKeywords = keywords }
}

func WithPickers(p PickerConfig) EngineOption {
	return func(e *Engine) { e.pickers = p }
}

func NewEngine(catalog *Catalog, sessions Repository, media MediaFetcher, opts ...EngineOption) *Engine {
	e := &Engine{
		catalog:         catalog,
		sessions:        sessions,
		media:           media,
		pickers:         DefaultPickers(),
		restartKeywords: []string{"登録", "やり直し"},
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// HandleTurn processes one inbound event for one user and yields exactly
// one outcome. A first contact greets with question zero and does not
// consume the inbound payload as an answer. Store mutations happen only
// after the whole turn has been decided, so any failure leaves position
// and answers exactly as they were.
func (e *Engine) HandleTurn(ctx context.Context, userID string, in Inbound) (Outcome, error) {
	session, found, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load session: %w", err)
	}

	if !found {
		return e.startSession(ctx, userID)
	}

	if in.Kind == InboundText && e.isRestart(in.Text) {
		return e.restartSession(ctx, session)
	}

	// Work on a copy so a rejected or failed turn never leaks partial
	// mutations into the store.
	work := session.Clone()
	position := e.catalog.NextApplicable(work.Position, work.AnswerMap())
	if position >= e.catalog.Len() {
		// A resident session past the end means a finalize was lost
		// mid-flight; finish it now rather than wedging the user.
		return e.finalize(ctx, work)
	}
	question := e.catalog.At(position)

	value, outcome, err := e.acceptAnswer(ctx, work, question, in)
	if err != nil {
		return Outcome{}, err
	}
	if outcome != nil {
		if outcome.Kind == OutcomeNextPrompt && outcome.Freeform {
			// Entering the escape sub-dialog is the only mid-question
			// state change that persists.
			work.UpdatedAt = e.now()
			if err := e.sessions.Save(ctx, work); err != nil {
				return Outcome{}, fmt.Errorf("save session: %w", err)
			}
		}
		return *outcome, nil
	}

	work.SetAnswer(question.Key, value)
	work.PendingFreeform = false
	work.Position = e.catalog.NextApplicable(position+1, work.AnswerMap())
	work.UpdatedAt = e.now()

	if work.Position >= e.catalog.Len() {
		return e.finalize(ctx, work)
	}

	if err := e.sessions.Save(ctx, work); err != nil {
		return Outcome{}, fmt.Errorf("save session: %w", err)
	}
	next := e.catalog.At(work.Position)
	return Outcome{Kind: OutcomeNextPrompt, Question: &next}, nil
}

// acceptAnswer validates the inbound payload against the question's
// modality. It returns the accepted value, or a terminal outcome for
// the turn (rejection or sub-dialog prompt).
func (e *Engine) acceptAnswer(ctx context.Context, work *Session, question Question, in Inbound) (string, *Outcome, error) {
	if work.PendingFreeform {
		// The previous turn picked the escape option; any text is now
		// taken verbatim.
		if in.Kind != InboundText {
			return "", reject(question, RejectNotText, nil), nil
		}
		return strings.TrimSpace(in.Text), nil, nil
	}

	switch question.Modality {
	case ModalityFreeText:
		if in.Kind != InboundText {
			return "", reject(question, RejectNotText, nil), nil
		}
		return strings.TrimSpace(in.Text), nil, nil

	case ModalityChoice:
		if in.Kind != InboundText {
			return "", reject(question, RejectNotText, nil), nil
		}
		text := strings.TrimSpace(in.Text)
		if !contains(question.Choices, text) {
			return "", reject(question, RejectUnknownChoice, nil), nil
		}
		return text, nil, nil

	case ModalityImage:
		if in.Kind != InboundImage {
			return "", reject(question, RejectNotImage, nil), nil
		}
		token, err := e.media.Fetch(ctx, in.MessageID)
		if err != nil {
			// Collaborator failure: absorb into a resend prompt, keep
			// the session untouched.
			return "", reject(question, RejectMediaFetch, err), nil
		}
		return token, nil, nil

	case ModalityDate, ModalityTime:
		if in.Kind != InboundText {
			return "", reject(question, RejectNotText, nil), nil
		}
		text := strings.TrimSpace(in.Text)
		if text == EscapeLabel {
			work.PendingFreeform = true
			return "", &Outcome{Kind: OutcomeNextPrompt, Question: &question, Freeform: true}, nil
		}
		if !contains(e.optionsFor(question), text) {
			return "", reject(question, RejectUnknownChoice, nil), nil
		}
		return text, nil, nil

	default:
		return "", nil, fmt.Errorf("question %q has unknown modality %q", question.Key, question.Modality)
	}
}

func (e *Engine) optionsFor(question Question) []string {
	switch question.Modality {
	case ModalityDate:
		return e.pickers.DateOptions(e.now())
	case ModalityTime:
		return e.pickers.TimeOptions()
	default:
		return question.Choices
	}
}

func (e *Engine) startSession(ctx context.Context, userID string) (Outcome, error) {
	session := NewSession(userID, e.now())
	session.Position = e.catalog.NextApplicable(0, Answers{})
	if session.Position >= e.catalog.Len() {
		return Outcome{}, fmt.Errorf("catalog has no applicable questions")
	}
	if err := e.sessions.Save(ctx, session); err != nil {
		return Outcome{}, fmt.Errorf("save session: %w", err)
	}
	first := e.catalog.At(session.Position)
	return Outcome{Kind: OutcomeNextPrompt, Question: &first}, nil
}

func (e *Engine) restartSession(ctx context.Context, session *Session) (Outcome, error) {
	work := session.Clone()
	work.Reset(e.now())
	work.Position = e.catalog.NextApplicable(0, Answers{})
	if err := e.sessions.Save(ctx, work); err != nil {
		return Outcome{}, fmt.Errorf("save session: %w", err)
	}
	first := e.catalog.At(work.Position)
	return Outcome{Kind: OutcomeNextPrompt, Question: &first}, nil
}

// finalize turns a completed session into a record and removes the
// session in the same turn, so a user can never be finalized twice.
func (e *Engine) finalize(ctx context.Context, work *Session) (Outcome, error) {
	answers := work.AnswerMap()
	record := &Record{
		UserID:      work.UserID,
		SubmittedAt: e.now(),
	}
	for i := 0; i < e.catalog.Len(); i++ {
		q := e.catalog.At(i)
		if v, ok := answers[q.Key]; ok {
			record.Fields = append(record.Fields, Answer{Key: q.Key, Value: v})
		}
	}
	if err := e.sessions.Delete(ctx, work.UserID); err != nil {
		return Outcome{}, fmt.Errorf("delete session: %w", err)
	}
	return Outcome{Kind: OutcomeCompleted, Record: record}, nil
}

func (e *Engine) isRestart(text string) bool {
	for _, kw := range e.restartKeywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func reject(question Question, reason string, err error) *Outcome {
	q := question
	return &Outcome{Kind: OutcomeRejected, Question: &q, Reason: reason, Err: err}
}
