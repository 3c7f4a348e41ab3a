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
	twilioBaseURL        = "https://api.twilio.com"
	defaultTwilioTimeout = 10 * time.Second
)

type twilioResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// TwilioSender delivers SMS and WhatsApp messages through the Twilio
// Messages API. WhatsApp sends use the whatsapp: address prefix.
type TwilioSender struct {
	client  *resty.Client
	baseURL string
}

func NewTwilioSender() *TwilioSender {
	client := resty.New()
	client.SetTimeout(defaultTwilioTimeout)
	client.SetRetryCount(0)

	return &TwilioSender{client: client, baseURL: twilioBaseURL}
}

func NewTwilioSenderWithClient(client *resty.Client, baseURL string) *TwilioSender {
	return &TwilioSender{client: client, baseURL: baseURL}
}

func (t *TwilioSender) Send(ctx context.Context, cfg domain.SMSConfiguration, msg domain.MessageLog) (*SendResult, error) {
	from := msg.Sender
	if from == "" {
		from = cfg.PhoneNumber
	}
	return t.sendMessage(ctx, cfg.AccountSID, cfg.AuthToken, from, msg.Recipient, msg.Body)
}

// TwilioWhatsAppSender adapts TwilioSender to the WhatsApp configuration.
type TwilioWhatsAppSender struct {
	inner *TwilioSender
}

func NewTwilioWhatsAppSender(inner *TwilioSender) *TwilioWhatsAppSender {
	return &TwilioWhatsAppSender{inner: inner}
}

func (t *TwilioWhatsAppSender) Send(ctx context.Context, cfg domain.WhatsAppConfiguration, msg domain.MessageLog) (*SendResult, error) {
	from := msg.Sender
	if from == "" {
		from = cfg.WhatsAppNumber
	}
	return t.inner.sendMessage(ctx, cfg.AccountSID, cfg.AuthToken,
		whatsAppAddress(from), whatsAppAddress(msg.Recipient), msg.Body)
}

func (t *TwilioSender) sendMessage(ctx context.Context, accountSID, authToken, from, to, body string) (*SendResult, error) {
	if t == nil || t.client == nil {
		return nil, fmt.Errorf("twilio sender is not initialized")
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.baseURL, accountSID)

	response, err := t.client.R().
		SetContext(ctx).
		SetBasicAuth(accountSID, authToken).
		SetFormData(map[string]string{
			"From": from,
			"To":   to,
			"Body": body,
		}).
		Post(endpoint)
	if err != nil {
		return nil, &ProviderError{
			Message:   "twilio request failed",
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

	var parsed twilioResponse
	if err := json.Unmarshal(response.Body(), &parsed); err != nil {
		return nil, &ProviderError{
			StatusCode: statusCode,
			Message:    "twilio returned unparseable response",
			Cause:      err,
		}
	}

	switch parsed.Status {
	case "queued", "sending", "sent":
		return &SendResult{
			StatusCode: statusCode,
			Body:       responseBody,
			MessageID:  parsed.SID,
		}, nil
	}

	return nil, &ProviderError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("twilio message status %q: %s", parsed.Status, parsed.ErrorMessage),
	}
}

func whatsAppAddress(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
