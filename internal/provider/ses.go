package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	"github.com/gestionis/notify-core/internal/domain"
)

// SESSender delivers email through Amazon SES. Credentials come from the
// ambient AWS chain (env, shared config, instance role).
type SESSender struct {
	svc sesiface.SESAPI
}

func NewSESSender(region string) (*SESSender, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}
	return &SESSender{svc: ses.New(sess)}, nil
}

func NewSESSenderWithClient(svc sesiface.SESAPI) *SESSender {
	return &SESSender{svc: svc}
}

func (s *SESSender) Send(ctx context.Context, cfg domain.EmailConfiguration, msg domain.MessageLog) (*SendResult, error) {
	if s == nil || s.svc == nil {
		return nil, fmt.Errorf("ses sender is not initialized")
	}

	from := msg.Sender
	if from == "" {
		from = cfg.FromEmail
	}

	body := &ses.Body{
		Text: &ses.Content{
			Charset: aws.String("UTF-8"),
			Data:    aws.String(msg.Body),
		},
	}
	if html := msg.HTMLBody(); html != "" {
		body.Html = &ses.Content{
			Charset: aws.String("UTF-8"),
			Data:    aws.String(html),
		}
	}

	destination := &ses.Destination{
		ToAddresses: []*string{aws.String(msg.Recipient)},
	}
	for _, cc := range msg.CCList() {
		destination.CcAddresses = append(destination.CcAddresses, aws.String(cc))
	}

	input := &ses.SendEmailInput{
		Source:      aws.String(from),
		Destination: destination,
		Message: &ses.Message{
			Subject: &ses.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(msg.Subject),
			},
			Body: body,
		},
	}

	output, err := s.svc.SendEmailWithContext(ctx, input)
	if err != nil {
		return nil, &ProviderError{
			Message:   "ses send failed",
			Transient: isTransientSESError(err),
			Cause:     err,
		}
	}

	return &SendResult{MessageID: aws.StringValue(output.MessageId)}, nil
}

func isTransientSESError(err error) bool {
	var awsErr awserr.Error
	if !errors.As(err, &awsErr) {
		return false
	}
	switch awsErr.Code() {
	case "Throttling", "ThrottlingException", "RequestTimeout", "ServiceUnavailable":
		return true
	}
	return false
}
