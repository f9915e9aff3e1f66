package survey

import (
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2025, 7, 28, 9, 30, 0, 0, time.UTC)
}

func TestRenderDateChoice(t *testing.T) {
	r := NewRenderer(PickerConfig{DateWindow: 5, TimeFrom: 15, TimeTo: 22}, fixedClock)

	p := r.Render(Question{Key: "d", Prompt: "面接希望日を選んでください。", Modality: ModalityDate}, false)
	want := []string{"7月28日", "7月29日", "7月30日", "7月31日", "8月1日", EscapeLabel}
	if p.Text != "面接希望日を選んでください。" {
		t.Errorf("Text = %q", p.Text)
	}
	if len(p.Options) != len(want) {
		t.Fatalf("Options = %v, want %v", p.Options, want)
	}
	for i := range want {
		if p.Options[i] != want[i] {
			t.Errorf("Options[%d] = %q, want %q", i, p.Options[i], want[i])
		}
	}
}

func TestRenderTimeChoice(t *testing.T) {
	r := NewRenderer(PickerConfig{DateWindow: 10, TimeFrom: 15, TimeTo: 18}, fixedClock)

	p := r.Render(Question{Key: "t", Prompt: "時間帯", Modality: ModalityTime}, false)
	want := []string{"15:00", "16:00", "17:00", "18:00", EscapeLabel}
	if len(p.Options) != len(want) {
		t.Fatalf("Options = %v, want %v", p.Options, want)
	}
	for i := range want {
		if p.Options[i] != want[i] {
			t.Errorf("Options[%d] = %q, want %q", i, p.Options[i], want[i])
		}
	}
}

func TestRenderModalities(t *testing.T) {
	r := NewRenderer(DefaultPickers(), fixedClock)

	tests := []struct {
		name     string
		question Question
		freeform bool
		wantOpts int
	}{
		{
			name:     "free text has no options",
			question: Question{Key: "n", Prompt: "name?", Modality: ModalityFreeText},
		},
		{
			name:     "image has no options",
			question: Question{Key: "p", Prompt: "photo?", Modality: ModalityImage},
		},
		{
			name:     "choice keeps catalog order",
			question: Question{Key: "e", Prompt: "exp?", Modality: ModalityChoice, Choices: []string{"あり", "なし"}},
			wantOpts: 2,
		},
		{
			name:     "freeform sub-dialog drops options",
			question: Question{Key: "d", Prompt: "date?", Modality: ModalityDate},
			freeform: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := r.Render(tt.question, tt.freeform)
			if len(p.Options) != tt.wantOpts {
				t.Errorf("Options = %v, want %d entries", p.Options, tt.wantOpts)
			}
			if p.Text == "" {
				t.Error("prompt text must not be empty")
			}
		})
	}
}

func TestRenderRejected(t *testing.T) {
	r := NewRenderer(DefaultPickers(), fixedClock)
	q := Question{Key: "e", Prompt: "exp?", Modality: ModalityChoice, Choices: []string{"あり", "なし"}}

	// Unknown choice re-emits the identical prompt.
	prompts := r.RenderRejected(q, RejectUnknownChoice)
	if len(prompts) != 1 || prompts[0].Text != q.Prompt || len(prompts[0].Options) != 2 {
		t.Errorf("unknown choice re-prompt = %+v", prompts)
	}

	img := Question{Key: "p", Prompt: "photo?", Modality: ModalityImage}
	prompts = r.RenderRejected(img, RejectNotImage)
	if len(prompts) != 1 || prompts[0].Text == "" {
		t.Errorf("not-image reminder = %+v", prompts)
	}

	prompts = r.RenderRejected(img, RejectMediaFetch)
	if len(prompts) != 1 || prompts[0].Text == "" {
		t.Errorf("media retry reminder = %+v", prompts)
	}
}
