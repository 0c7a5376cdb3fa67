// Package sms delivers text messages to guardians.
package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dojoflow_backend/platform/config"
	"dojoflow_backend/platform/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

var ErrNoRecipients = errors.New("sms: no recipients")

type Sender interface {
	SendSMS(ctx context.Context, recipients []string, body string) error
}

// StubSender logs messages instead of sending them.
type StubSender struct {
	log *logger.Logger
}

func NewStubSender(log *logger.Logger) *StubSender {
	return &StubSender{log: log}
}

func (s *StubSender) SendSMS(ctx context.Context, recipients []string, body string) error {
	if len(recipients) == 0 {
		return ErrNoRecipients
	}
	s.log.WithContext(ctx).Info("sms stub", "recipients", len(recipients), "length", len(body))
	return nil
}

// Publisher is the part of the SNS client the sender uses.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSender publishes each message directly to a phone number.
type SNSSender struct {
	client   Publisher
	senderID string
}

func NewSNSSender(client Publisher, senderID string) *SNSSender {
	return &SNSSender{client: client, senderID: senderID}
}

func (s *SNSSender) SendSMS(ctx context.Context, recipients []string, body string) error {
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	var attrs map[string]types.MessageAttributeValue
	if s.senderID != "" {
		attrs = map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {DataType: aws.String("String"), StringValue: aws.String(s.senderID)},
			"AWS.SNS.SMS.SMSType":  {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
		}
	}

	var errs []error
	for _, to := range recipients {
		to = strings.TrimSpace(to)
		if to == "" {
			continue
		}
		if _, err := s.client.Publish(ctx, &sns.PublishInput{
			PhoneNumber:       aws.String(to),
			Message:           aws.String(body),
			MessageAttributes: attrs,
		}); err != nil {
			errs = append(errs, fmt.Errorf("sns publish: %w", err))
		}
	}
	return errors.Join(errs...)
}

// New returns the sender selected by SMS_PROVIDER.
func New(ctx context.Context, cfg config.SMSConfig, log *logger.Logger) (Sender, error) {
	switch cfg.GetSMSProvider() {
	case "sns":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.GetAWSRegion()))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return NewSNSSender(sns.NewFromConfig(awsCfg), cfg.GetSMSSenderID()), nil
	default:
		return NewStubSender(log), nil
	}
}
