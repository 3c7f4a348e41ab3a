package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gestionis/notify-core/internal/domain"
)

const (
	metaGraphBaseURL   = "https://graph.facebook.com"
	defaultMetaTimeout = 15 * time.Second
)

type metaTextPayload struct {
	Body string `json:"body"`
}

type metaRequest struct {
	MessagingProduct string          `json:"messaging_product"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	Text             metaTextPayload `json:"text"`
}

type metaResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// MetaWhatsAppSender delivers WhatsApp messages through the Meta Cloud API.
type MetaWhatsAppSender struct {
	client  *resty.Client
	baseURL string
}

func NewMetaWhatsAppSender() *MetaWhatsAppSender {
	client := resty.New()
	client.SetTimeout(defaultMetaTimeout)
	client.SetRetryCount(0)

	return &MetaWhatsAppSender{client: client, baseURL: metaGraphBaseURL}
}

func NewMetaWhatsAppSenderWithClient(client *resty.Client, baseURL string) *MetaWhatsAppSender {
	return &MetaWhatsAppSender{client: client, baseURL: baseURL}
}

func (m *MetaWhatsAppSender) Send(ctx context.Context, cfg domain.WhatsAppConfiguration, msg domain.MessageLog) (*SendResult, error) {
	if m == nil || m.client == nil {
		return nil, fmt.Errorf("meta sender is not initialized")
	}

	endpoint := fmt.Sprintf("%s/%s/%s/messages", m.baseURL, cfg.Version(), cfg.WhatsAppNumber)

	reqBody := metaRequest{
		MessagingProduct: "whatsapp",
		To:               strings.TrimPrefix(msg.Recipient, "whatsapp:"),
		Type:             "text",
		Text:             metaTextPayload{Body: msg.Body},
	}

	response, err := m.client.R().
		SetContext(ctx).
		SetAuthToken(cfg.AuthToken).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		Post(endpoint)
	if err != nil {
		return nil, &ProviderError{
			Message:   "meta request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}

	statusCode := response.StatusCode()
	responseBody := strings.TrimSpace(response.String())

	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return nil, &ProviderError{
			StatusCode: statusCode,
			Message:    providerErrorMessage(statusCode, responseBody),
			Transient:  isTransientHTTPStatus(statusCode),
		}
	}

	var parsed metaResponse
	if err := json.Unmarshal(response.Body(), &parsed); err != nil {
		return nil, &ProviderError{
			StatusCode: statusCode,
			Message:    "meta returned unparseable response",
			Cause:      err,
		}
	}

	messageID := ""
	if len(parsed.Messages) > 0 {
		messageID = parsed.Messages[0].ID
	}

	return &SendResult{
		StatusCode: statusCode,
		Body:       responseBody,
		MessageID:  messageID,
	}, nil
}
