package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestValidateSignature(t *testing.T) {
	body := []byte(`{"events":[]}`)
	secret := "channel-secret"

	tests := []struct {
		name      string
		secret    string
		signature string
		want      bool
	}{
		{"valid", secret, sign(secret, body), true},
		{"wrong secret", "other", sign(secret, body), false},
		{"tampered body", secret, sign(secret, []byte(`{"events":[{}]}`)), false},
		{"empty signature", secret, "", false},
		{"empty secret", "", sign(secret, body), false},
		{"garbage", secret, "not-base64!!", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateSignature(tt.secret, body, tt.signature); got != tt.want {
				t.Errorf("ValidateSignature = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuickReplyMessage(t *testing.T) {
	m := QuickReplyMessage("経験はありますか？", []string{"あり", "なし"})
	if m.QuickReply == nil || len(m.QuickReply.Items) != 2 {
		t.Fatalf("QuickReply = %+v", m.QuickReply)
	}
	item := m.QuickReply.Items[0]
	if item.Type != "action" || item.Action.Type != "message" {
		t.Errorf("item shape = %+v", item)
	}
	if item.Action.Label != "あり" || item.Action.Text != "あり" {
		t.Errorf("label/text = %+v", item.Action)
	}

	plain := QuickReplyMessage("テキスト", nil)
	if plain.QuickReply != nil {
		t.Error("no options must produce a plain text message")
	}
}
