package survey

import "testing"

func TestNewCatalogValidation(t *testing.T) {
	tests := []struct {
		name      string
		questions []Question
		wantErr   bool
	}{
		{
			name: "valid",
			questions: []Question{
				{Key: "a", Prompt: "a?", Modality: ModalityFreeText},
				{Key: "b", Prompt: "b?", Modality: ModalityChoice, Choices: []string{"x"}},
			},
		},
		{
			name: "duplicate key",
			questions: []Question{
				{Key: "a", Prompt: "a?", Modality: ModalityFreeText},
				{Key: "a", Prompt: "a again?", Modality: ModalityFreeText},
			},
			wantErr: true,
		},
		{
			name:      "missing key",
			questions: []Question{{Prompt: "a?", Modality: ModalityFreeText}},
			wantErr:   true,
		},
		{
			name:      "choice without choices",
			questions: []Question{{Key: "a", Prompt: "a?", Modality: ModalityChoice}},
			wantErr:   true,
		},
		{
			name:      "free text with choices",
			questions: []Question{{Key: "a", Prompt: "a?", Modality: ModalityFreeText, Choices: []string{"x"}}},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.questions...)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNextApplicable(t *testing.T) {
	c := MustCatalog(
		Question{Key: "experience", Prompt: "exp?", Modality: ModalityChoice, Choices: []string{"yes", "no"}},
		Question{Key: "venue", Prompt: "venue?", Modality: ModalityFreeText,
			AppliesIf: func(a Answers) bool { return a["experience"] == "yes" }},
		Question{Key: "photo", Prompt: "photo?", Modality: ModalityImage},
	)

	tests := []struct {
		name    string
		from    int
		answers Answers
		want    int
	}{
		{"start", 0, Answers{}, 0},
		{"venue applies", 1, Answers{"experience": "yes"}, 1},
		{"venue skipped", 1, Answers{"experience": "no"}, 2},
		{"past end", 3, Answers{}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.NextApplicable(tt.from, tt.answers); got != tt.want {
				t.Errorf("NextApplicable(%d) = %d, want %d", tt.from, got, tt.want)
			}
		})
	}
}

func TestDefaultIntakeCatalog(t *testing.T) {
	c := DefaultIntakeCatalog()
	if c.Len() != 7 {
		t.Fatalf("Len = %d, want 7", c.Len())
	}
	if c.IndexOf(KeyPreviousVenue) <= c.IndexOf(KeyExperience) {
		t.Error("previous venue must come after experience (no forward references)")
	}
	if c.At(c.Len()-1).Modality != ModalityImage {
		t.Error("photo question must close the survey")
	}
}
