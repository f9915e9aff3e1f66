package survey

import (
	"context"
	"errors"
	"testing"
	"time"
)

// mapRepository is a plain in-memory Repository for tests.
type mapRepository struct {
	sessions map[string]*Session
}

func newMapRepository() *mapRepository {
	return &mapRepository{sessions: make(map[string]*Session)}
}

func (r *mapRepository) Get(_ context.Context, userID string) (*Session, bool, error) {
	s, ok := r.sessions[userID]
	if !ok {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

func (r *mapRepository) Save(_ context.Context, s *Session) error {
	r.sessions[s.UserID] = s.Clone()
	return nil
}

func (r *mapRepository) Delete(_ context.Context, userID string) error {
	delete(r.sessions, userID)
	return nil
}

func (r *mapRepository) List(_ context.Context) ([]*Session, error) {
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.Clone())
	}
	return out, nil
}

type fakeMedia struct {
	token string
	err   error
	calls int
}

func (f *fakeMedia) Fetch(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

var testClock = func() time.Time {
	return time.Date(2025, 7, 20, 12, 0, 0, 0, time.UTC)
}

func newTestEngine(t *testing.T, catalog *Catalog) (*Engine, *mapRepository, *fakeMedia) {
	t.Helper()
	repo := newMapRepository()
	media := &fakeMedia{token: "data:image/jpeg;base64,AAAA"}
	engine := NewEngine(catalog, repo, media, WithClock(testClock))
	return engine, repo, media
}

func text(s string) Inbound {
	return Inbound{Kind: InboundText, Text: s}
}

func image(id string) Inbound {
	return Inbound{Kind: InboundImage, MessageID: id}
}

func mustTurn(t *testing.T, e *Engine, userID string, in Inbound) Outcome {
	t.Helper()
	out, err := e.HandleTurn(context.Background(), userID, in)
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	return out
}

func twoQuestionCatalog() *Catalog {
	return MustCatalog(
		Question{Key: "name", Prompt: "name?", Modality: ModalityFreeText},
		Question{Key: "experience", Prompt: "experience?", Modality: ModalityChoice, Choices: []string{"yes", "no"}},
	)
}

func TestFirstContactAsksFirstQuestion(t *testing.T) {
	// Any first message is a greeting, not data.
	for _, first := range []Inbound{text("hello"), text("yes"), image("m1")} {
		engine, repo, _ := newTestEngine(t, twoQuestionCatalog())

		out := mustTurn(t, engine, "U1", first)
		if out.Kind != OutcomeNextPrompt {
			t.Fatalf("Kind = %s, want next_prompt", out.Kind)
		}
		if out.Question.Key != "name" {
			t.Errorf("Question = %s, want name", out.Question.Key)
		}
		s := repo.sessions["U1"]
		if s == nil || s.Position != 0 || len(s.Answers) != 0 {
			t.Errorf("session after first contact = %+v", s)
		}
	}
}

func TestLinearRunToCompletion(t *testing.T) {
	engine, repo, _ := newTestEngine(t, twoQuestionCatalog())

	mustTurn(t, engine, "U1", text("hi"))

	out := mustTurn(t, engine, "U1", text("Taro"))
	if out.Kind != OutcomeNextPrompt || out.Question.Key != "experience" {
		t.Fatalf("after name: %+v", out)
	}

	out = mustTurn(t, engine, "U1", text("maybe"))
	if out.Kind != OutcomeRejected || out.Reason != RejectUnknownChoice {
		t.Fatalf("bad choice: %+v", out)
	}
	if out.Question.Key != "experience" {
		t.Errorf("rejected turn must re-ask the same question, got %s", out.Question.Key)
	}
	if s := repo.sessions["U1"]; s.Position != 1 || len(s.Answers) != 1 {
		t.Errorf("rejected turn mutated session: %+v", s)
	}

	out = mustTurn(t, engine, "U1", text("no"))
	if out.Kind != OutcomeCompleted {
		t.Fatalf("final answer: %+v", out)
	}
	got := out.Record.FieldMap()
	if got["name"] != "Taro" || got["experience"] != "no" {
		t.Errorf("record = %v", got)
	}
	if len(out.Record.Fields) != 2 || out.Record.Fields[0].Key != "name" {
		t.Errorf("record field order = %v", out.Record.Fields)
	}
	if _, ok := repo.sessions["U1"]; ok {
		t.Error("session must be removed on completion")
	}

	// Finalize-once: the next message is a brand-new first contact.
	out = mustTurn(t, engine, "U1", text("anything"))
	if out.Kind != OutcomeNextPrompt || out.Question.Key != "name" {
		t.Errorf("post-completion contact: %+v", out)
	}
}

func TestMonotonicPosition(t *testing.T) {
	engine, repo, _ := newTestEngine(t, DefaultIntakeCatalog())

	mustTurn(t, engine, "U1", text("start"))
	answers := []Inbound{
		text("山田太郎"),
		text("7月21日"),
		text("19:00"),
		text(ChoiceNo),
		text(ChoiceNo),
	}
	last := 0
	for _, in := range answers {
		mustTurn(t, engine, "U1", in)
		s := repo.sessions["U1"]
		if s.Position <= last {
			t.Fatalf("position %d did not advance past %d", s.Position, last)
		}
		last = s.Position
	}
}

func TestExperienceSkipsPreviousVenue(t *testing.T) {
	engine, _, _ := newTestEngine(t, DefaultIntakeCatalog())

	mustTurn(t, engine, "U1", text("start"))
	mustTurn(t, engine, "U1", text("山田太郎"))
	mustTurn(t, engine, "U1", text("7月21日"))
	mustTurn(t, engine, "U1", text("19:00"))

	out := mustTurn(t, engine, "U1", text(ChoiceNo))
	if out.Question.Key != KeyTattoo {
		t.Errorf("after experience=なし the next question is %s, want %s", out.Question.Key, KeyTattoo)
	}
}

func TestExperienceAsksPreviousVenue(t *testing.T) {
	engine, _, _ := newTestEngine(t, DefaultIntakeCatalog())

	mustTurn(t, engine, "U1", text("start"))
	mustTurn(t, engine, "U1", text("山田太郎"))
	mustTurn(t, engine, "U1", text("7月21日"))
	mustTurn(t, engine, "U1", text("19:00"))

	out := mustTurn(t, engine, "U1", text(ChoiceYes))
	if out.Question.Key != KeyPreviousVenue {
		t.Errorf("after experience=あり the next question is %s, want %s", out.Question.Key, KeyPreviousVenue)
	}
}

func TestDateChoiceAcceptsGeneratedOption(t *testing.T) {
	engine, repo, _ := newTestEngine(t, DefaultIntakeCatalog())

	mustTurn(t, engine, "U1", text("start"))
	mustTurn(t, engine, "U1", text("山田太郎"))

	// testClock is 2025-07-20; day 3 of the window is 7月22日.
	out := mustTurn(t, engine, "U1", text("7月22日"))
	if out.Kind != OutcomeNextPrompt || out.Question.Key != KeyInterviewTime {
		t.Fatalf("date answer: %+v", out)
	}
	if got := repo.sessions["U1"].AnswerMap()[KeyInterviewDate]; got != "7月22日" {
		t.Errorf("stored date = %q", got)
	}

	// Outside the window is rejected.
	out = mustTurn(t, engine, "U1", text("9月1日"))
	if out.Kind != OutcomeRejected {
		t.Fatalf("out-of-window date: %+v", out)
	}
}

func TestEscapeFreeformRoundTrip(t *testing.T) {
	engine, repo, _ := newTestEngine(t, DefaultIntakeCatalog())

	mustTurn(t, engine, "U1", text("start"))
	mustTurn(t, engine, "U1", text("山田太郎"))
	before := repo.sessions["U1"].Position

	out := mustTurn(t, engine, "U1", text(EscapeLabel))
	if out.Kind != OutcomeNextPrompt || !out.Freeform {
		t.Fatalf("escape: %+v", out)
	}
	s := repo.sessions["U1"]
	if s.Position != before || !s.PendingFreeform {
		t.Fatalf("escape must not advance position: %+v", s)
	}
	if len(s.Answers) != 1 {
		t.Fatalf("escape must not record an answer: %v", s.Answers)
	}

	out = mustTurn(t, engine, "U1", text("8月10日の午後"))
	if out.Kind != OutcomeNextPrompt || out.Question.Key != KeyInterviewTime {
		t.Fatalf("freeform answer: %+v", out)
	}
	s = repo.sessions["U1"]
	if s.PendingFreeform {
		t.Error("pending flag must clear after the freeform answer")
	}
	if s.Position != before+1 {
		t.Errorf("position = %d, want %d (one advance for the whole sub-dialog)", s.Position, before+1)
	}
	if got := s.AnswerMap()[KeyInterviewDate]; got != "8月10日の午後" {
		t.Errorf("freeform answer = %q", got)
	}
}

func TestImageQuestion(t *testing.T) {
	catalog := MustCatalog(
		Question{Key: "photo", Prompt: "photo?", Modality: ModalityImage},
	)
	engine, repo, media := newTestEngine(t, catalog)

	mustTurn(t, engine, "U1", text("start"))

	// Text payloads never answer an image question.
	out := mustTurn(t, engine, "U1", text("here you go"))
	if out.Kind != OutcomeRejected || out.Reason != RejectNotImage {
		t.Fatalf("text for image: %+v", out)
	}

	// Media fetch failure keeps the session untouched.
	media.err = errors.New("content api down")
	out = mustTurn(t, engine, "U1", image("m1"))
	if out.Kind != OutcomeRejected || out.Reason != RejectMediaFetch {
		t.Fatalf("fetch failure: %+v", out)
	}
	if out.Err == nil {
		t.Error("fetch failure must surface the cause for logging")
	}
	if s := repo.sessions["U1"]; s.Position != 0 || len(s.Answers) != 0 {
		t.Errorf("fetch failure mutated session: %+v", s)
	}

	media.err = nil
	out = mustTurn(t, engine, "U1", image("m1"))
	if out.Kind != OutcomeCompleted {
		t.Fatalf("image answer: %+v", out)
	}
	if got := out.Record.FieldMap()["photo"]; got != media.token {
		t.Errorf("photo answer = %q", got)
	}
}

func TestRestartKeywordResetsSession(t *testing.T) {
	engine, repo, _ := newTestEngine(t, twoQuestionCatalog())

	mustTurn(t, engine, "U1", text("hi"))
	mustTurn(t, engine, "U1", text("Taro"))

	out := mustTurn(t, engine, "U1", text("やり直し"))
	if out.Kind != OutcomeNextPrompt || out.Question.Key != "name" {
		t.Fatalf("restart: %+v", out)
	}
	s := repo.sessions["U1"]
	if s.Position != 0 || len(s.Answers) != 0 {
		t.Errorf("restart left state behind: %+v", s)
	}
}

func TestRecordOmitsSkippedQuestions(t *testing.T) {
	engine, _, _ := newTestEngine(t, DefaultIntakeCatalog())

	mustTurn(t, engine, "U1", text("start"))
	mustTurn(t, engine, "U1", text("山田太郎"))
	mustTurn(t, engine, "U1", text("7月21日"))
	mustTurn(t, engine, "U1", text("19:00"))
	mustTurn(t, engine, "U1", text(ChoiceNo))
	mustTurn(t, engine, "U1", text(ChoiceNo))
	out := mustTurn(t, engine, "U1", image("m1"))

	if out.Kind != OutcomeCompleted {
		t.Fatalf("final: %+v", out)
	}
	if _, ok := out.Record.FieldMap()[KeyPreviousVenue]; ok {
		t.Error("skipped question must not appear in the record")
	}
	if len(out.Record.Fields) != 6 {
		t.Errorf("record has %d fields, want 6", len(out.Record.Fields))
	}
}
