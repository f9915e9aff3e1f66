package survey

import (
	"fmt"
	"time"
)

// EscapeLabel is the picker option that opens the manual-entry
// sub-dialog instead of answering directly.
const EscapeLabel = "それ以外"

// PickerConfig tunes the generated option sets for date and time
// questions. The same config must be shared by the engine (validation)
// and the renderer (display) or generated options would not round-trip.
type PickerConfig struct {
	// DateWindow is how many consecutive days are offered, starting
	// from the current date inclusive.
	DateWindow int

	// TimeFrom and TimeTo bound the hourly slots, both inclusive.
	TimeFrom int
	TimeTo   int
}

func DefaultPickers() PickerConfig {
	return PickerConfig{
		DateWindow: 10,
		TimeFrom:   15,
		TimeTo:     22,
	}
}

// DateOptions returns the selectable date labels for "now", escape
// option last.
func (p PickerConfig) DateOptions(now time.Time) []string {
	opts := make([]string, 0, p.DateWindow+1)
	for i := 0; i < p.DateWindow; i++ {
		d := now.AddDate(0, 0, i)
		opts = append(opts, fmt.Sprintf("%d月%d日", int(d.Month()), d.Day()))
	}
	return append(opts, EscapeLabel)
}

// TimeOptions returns the selectable hour labels, escape option last.
func (p PickerConfig) TimeOptions() []string {
	opts := make([]string, 0, p.TimeTo-p.TimeFrom+2)
	for h := p.TimeFrom; h <= p.TimeTo; h++ {
		opts = append(opts, fmt.Sprintf("%02d:00", h))
	}
	return append(opts, EscapeLabel)
}

func contains(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
