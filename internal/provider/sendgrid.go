package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gestionis/notify-core/internal/domain"
)

const (
	sendGridEndpoint       = "https://api.sendgrid.com/v3/mail/send"
	defaultSendGridTimeout = 10 * time.Second
)

type sendGridAddress struct {
	Email string `json:"email"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
	CC []sendGridAddress `json:"cc,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
	Headers          map[string]string         `json:"headers,omitempty"`
}

// SendGridSender delivers email through the SendGrid v3 mail send API.
type SendGridSender struct {
	client  *resty.Client
	baseURL string
}

func NewSendGridSender() *SendGridSender {
	client := resty.New()
	client.SetTimeout(defaultSendGridTimeout)
	client.SetRetryCount(0)

	return &SendGridSender{client: client, baseURL: sendGridEndpoint}
}

func NewSendGridSenderWithClient(client *resty.Client, baseURL string) *SendGridSender {
	return &SendGridSender{client: client, baseURL: baseURL}
}

func (s *SendGridSender) Send(ctx context.Context, cfg domain.EmailConfiguration, msg domain.MessageLog) (*SendResult, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("sendgrid sender is not initialized")
	}

	from := msg.Sender
	if from == "" {
		from = cfg.FromEmail
	}

	personalization := sendGridPersonalization{
		To: []sendGridAddress{{Email: msg.Recipient}},
	}
	for _, cc := range msg.CCList() {
		personalization.CC = append(personalization.CC, sendGridAddress{Email: cc})
	}

	content := []sendGridContent{{Type: "text/plain", Value: msg.Body}}
	if html := msg.HTMLBody(); html != "" {
		content = append(content, sendGridContent{Type: "text/html", Value: html})
	}

	reqBody := sendGridRequest{
		Personalizations: []sendGridPersonalization{personalization},
		From:             sendGridAddress{Email: from},
		Subject:          msg.Subject,
		Content:          content,
		Headers:          cfg.CustomHeaders,
	}

	response, err := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		Post(s.baseURL)
	if err != nil {
		return nil, &ProviderError{
			Message:   "sendgrid request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}

	statusCode := response.StatusCode()
	responseBody := strings.TrimSpace(response.String())

	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &SendResult{
			StatusCode: statusCode,
			Body:       responseBody,
			MessageID:  strings.TrimSpace(response.Header().Get("X-Message-Id")),
		}, nil
	}

	return nil, &ProviderError{
		StatusCode: statusCode,
		Message:    providerErrorMessage(statusCode, responseBody),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}
