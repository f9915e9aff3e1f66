package survey

import (
	"context"
	"time"
)

// Answer is one captured answer. Sessions keep answers as an ordered
// slice so the final record preserves catalog order.
type Answer struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Session is the mutable per-user survey progress. It is owned by the
// session repository; the engine mutates a working copy and writes it
// back only when a turn succeeds.
type Session struct {
	UserID   string   `json:"user_id"`
	Position int      `json:"position"`
	Answers  []Answer `json:"answers"`

	// PendingFreeform marks the one-turn sub-dialog entered when the
	// user picks the escape option on a date or time picker. The next
	// text payload is taken verbatim as the answer.
	PendingFreeform bool `json:"pending_freeform"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(userID string, now time.Time) *Session {
	return &Session{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AnswerMap builds the lookup view used by applicability predicates.
func (s *Session) AnswerMap() Answers {
	m := make(Answers, len(s.Answers))
	for _, a := range s.Answers {
		m[a.Key] = a.Value
	}
	return m
}

// SetAnswer records a value, replacing any previous answer for the key.
func (s *Session) SetAnswer(key, value string) {
	for i := range s.Answers {
		if s.Answers[i].Key == key {
			s.Answers[i].Value = value
			return
		}
	}
	s.Answers = append(s.Answers, Answer{Key: key, Value: value})
}

// Reset returns the session to position zero with no answers, keeping
// the user identity. Used by the restart keywords.
func (s *Session) Reset(now time.Time) {
	s.Position = 0
	s.Answers = nil
	s.PendingFreeform = false
	s.UpdatedAt = now
}

// Clone makes an independent copy for transactional turn handling.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Answers = make([]Answer, len(s.Answers))
	copy(cp.Answers, s.Answers)
	return &cp
}

// Repository stores sessions keyed by user identifier. Implementations
// must be safe for concurrent use; per-user turn serialization is the
// caller's responsibility.
type Repository interface {
	Get(ctx context.Context, userID string) (*Session, bool, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, userID string) error

	// List returns every resident session, for the admin surface.
	List(ctx context.Context) ([]*Session, error)
}
