package survey

import "fmt"

// Modality defines what kind of answer a question expects.
type Modality string

const (
	ModalityFreeText Modality = "free_text"
	ModalityChoice   Modality = "choice_single"
	ModalityImage    Modality = "image"
	ModalityDate     Modality = "date_choice"
	ModalityTime     Modality = "time_choice"
)

// Answers is a read-only view of the answers collected so far, keyed by
// question key. Applicability predicates receive this view.
type Answers map[string]string

// Question is one immutable catalog entry.
type Question struct {
	Key      string
	Prompt   string
	Modality Modality

	// Choices is the fixed option set for ModalityChoice. Date and time
	// pickers generate their options at render time instead.
	Choices []string

	// AppliesIf decides whether the question is asked, based on answers
	// to earlier questions only. Nil means always applicable.
	AppliesIf func(Answers) bool
}

// Catalog is the ordered survey definition. Index order is traversal order.
type Catalog struct {
	questions []Question
	byKey     map[string]int
}

func NewCatalog(questions ...Question) (*Catalog, error) {
	byKey := make(map[string]int, len(questions))
	for i, q := range questions {
		if q.Key == "" {
			return nil, fmt.Errorf("question at position %d has no key", i)
		}
		if _, dup := byKey[q.Key]; dup {
			return nil, fmt.Errorf("duplicate question key %q", q.Key)
		}
		if q.Modality == ModalityChoice && len(q.Choices) == 0 {
			return nil, fmt.Errorf("question %q is choice_single but has no choices", q.Key)
		}
		if q.Modality != ModalityChoice && len(q.Choices) > 0 {
			return nil, fmt.Errorf("question %q has choices but modality %s", q.Key, q.Modality)
		}
		byKey[q.Key] = i
	}
	return &Catalog{questions: questions, byKey: byKey}, nil
}

// MustCatalog is NewCatalog for static definitions.
func MustCatalog(questions ...Question) *Catalog {
	c, err := NewCatalog(questions...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Len() int {
	return len(c.questions)
}

func (c *Catalog) At(position int) Question {
	return c.questions[position]
}

// IndexOf returns the position of a question key, or -1.
func (c *Catalog) IndexOf(key string) int {
	if i, ok := c.byKey[key]; ok {
		return i
	}
	return -1
}

// NextApplicable returns the first position >= from whose question applies
// given the answers collected so far. Returns Len() when every remaining
// question is skipped, which is the terminal position.
func (c *Catalog) NextApplicable(from int, answers Answers) int {
	for pos := from; pos < len(c.questions); pos++ {
		q := c.questions[pos]
		if q.AppliesIf == nil || q.AppliesIf(answers) {
			return pos
		}
	}
	return len(c.questions)
}

// Keys in the default intake catalog.
const (
	KeyName          = "name"
	KeyInterviewDate = "interview_date"
	KeyInterviewTime = "interview_time"
	KeyExperience    = "experience"
	KeyPreviousVenue = "previous_venue"
	KeyTattoo        = "tattoo"
	KeyPhoto         = "photo"
)

const (
	ChoiceYes = "あり"
	ChoiceNo  = "なし"
)

// DefaultIntakeCatalog is the recruitment interview intake survey.
// The previous-venue question is only asked when the applicant has
// night-work experience.
func DefaultIntakeCatalog() *Catalog {
	return MustCatalog(
		Question{
			Key:      KeyName,
			Prompt:   "本名を教えてください。",
			Modality: ModalityFreeText,
		},
		Question{
			Key:      KeyInterviewDate,
			Prompt:   "面接希望日を選んでください。",
			Modality: ModalityDate,
		},
		Question{
			Key:      KeyInterviewTime,
			Prompt:   "面接希望の時間帯を選んでください。",
			Modality: ModalityTime,
		},
		Question{
			Key:      KeyExperience,
			Prompt:   "経験はありますか？",
			Modality: ModalityChoice,
			Choices:  []string{ChoiceYes, ChoiceNo},
		},
		Question{
			Key:      KeyPreviousVenue,
			Prompt:   "過去に在籍していた店舗名を教えてください。",
			Modality: ModalityFreeText,
			AppliesIf: func(a Answers) bool {
				return a[KeyExperience] == ChoiceYes
			},
		},
		Question{
			Key:      KeyTattoo,
			Prompt:   "タトゥーや鯖（スジ彫り）はありますか？",
			Modality: ModalityChoice,
			Choices:  []string{ChoiceYes, ChoiceNo},
		},
		Question{
			Key:      KeyPhoto,
			Prompt:   "顔写真または全身写真を送ってください。",
			Modality: ModalityImage,
		},
	)
}
