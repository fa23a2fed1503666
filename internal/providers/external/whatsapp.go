package external

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const defaultWhatsAppURL = "https://graph.facebook.com/v19.0"

// WhatsAppCloud sends text messages through the WhatsApp Business Cloud API.
type WhatsAppCloud struct {
	baseURL string
	token   string
	phoneID string
	client  *http.Client
}

func NewWhatsAppCloud(baseURL, token, phoneID string, timeout time.Duration) *WhatsAppCloud {
	if baseURL == "" {
		baseURL = defaultWhatsAppURL
	}
	return &WhatsAppCloud{baseURL: strings.TrimRight(baseURL, "/"), token: token, phoneID: phoneID, client: newHTTPClient(timeout)}
}

type waMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

// Send delivers message to phone, given in +<country><number> form.
func (w *WhatsAppCloud) Send(ctx context.Context, phone, message string) error {
	body := waMessage{MessagingProduct: "whatsapp", To: strings.TrimPrefix(phone, "+"), Type: "text"}
	body.Text.Body = message

	return doJSON(ctx, w.client, "whatsapp", http.MethodPost, w.baseURL+"/"+w.phoneID+"/messages",
		map[string]string{"Authorization": "Bearer " + w.token}, body, nil)
}
