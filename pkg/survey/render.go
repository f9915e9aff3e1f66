package survey

import "time"

// Prompt is the transport-agnostic outbound message content for one
// question. The service layer maps it onto the messaging platform's
// message shape (text plus quick-reply options).
type Prompt struct {
	Text    string
	Options []string
}

// Reminder texts for rejected turns and the escape sub-dialog.
const (
	textFreeformDate  = "希望の日付を入力してください（例：7月25日）"
	textFreeformTime  = "希望の時間帯を入力してください（例：19時〜ラスト）"
	textFreeformOther = "回答を入力してください。"
	textNeedImage     = "画像で送ってください。"
	textMediaRetry    = "画像を受け取れませんでした。もう一度送ってください。"
	textNeedText      = "テキストで回答してください。"
)

// Renderer turns a question into its outbound prompt. Pure except for
// the injected clock, which only date pickers consult.
type Renderer struct {
	pickers PickerConfig
	now     func() time.Time
}

func NewRenderer(pickers PickerConfig, now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{pickers: pickers, now: now}
}

// Render produces the prompt for a question. When freeform is set the
// question's escape sub-dialog prompt is produced instead.
func (r *Renderer) Render(question Question, freeform bool) Prompt {
	if freeform {
		return Prompt{Text: freeformText(question)}
	}

	switch question.Modality {
	case ModalityChoice:
		return Prompt{Text: question.Prompt, Options: question.Choices}
	case ModalityDate:
		return Prompt{Text: question.Prompt, Options: r.pickers.DateOptions(r.now())}
	case ModalityTime:
		return Prompt{Text: question.Prompt, Options: r.pickers.TimeOptions()}
	default:
		return Prompt{Text: question.Prompt}
	}
}

// RenderRejected re-renders the active question, prefixed with the
// reminder matching the reject reason. The question content itself is
// identical to the original prompt so the user can answer again.
func (r *Renderer) RenderRejected(question Question, reason string) []Prompt {
	switch reason {
	case RejectNotImage:
		return []Prompt{{Text: textNeedImage}}
	case RejectMediaFetch:
		return []Prompt{{Text: textMediaRetry}}
	case RejectNotText:
		return []Prompt{{Text: textNeedText}, r.Render(question, false)}
	default:
		// Unknown choice label: just re-ask with the same options.
		return []Prompt{r.Render(question, false)}
	}
}

func freeformText(question Question) string {
	switch question.Modality {
	case ModalityDate:
		return textFreeformDate
	case ModalityTime:
		return textFreeformTime
	default:
		return textFreeformOther
	}
}
