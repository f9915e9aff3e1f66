package line

// Message is the outbound LINE message shape. Only text messages with an
// optional quick reply are needed by the intake bot.
type Message struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	QuickReply *QuickReply `json:"quickReply,omitempty"`
}

type QuickReply struct {
	Items []QuickReplyItem `json:"items"`
}

type QuickReplyItem struct {
	Type   string `json:"type"`
	Action Action `json:"action"`
}

type Action struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// TextMessage builds a plain text message.
func TextMessage(text string) Message {
	return Message{Type: "text", Text: text}
}

// QuickReplyMessage builds a text message with one message-action item
// per option, label and sent text identical (the original bot's shape).
func QuickReplyMessage(text string, options []string) Message {
	if len(options) == 0 {
		return TextMessage(text)
	}
	items := make([]QuickReplyItem, 0, len(options))
	for _, opt := range options {
		items = append(items, QuickReplyItem{
			Type: "action",
			Action: Action{
				Type:  "message",
				Label: opt,
				Text:  opt,
			},
		})
	}
	return Message{
		Type:       "text",
		Text:       text,
		QuickReply: &QuickReply{Items: items},
	}
}
