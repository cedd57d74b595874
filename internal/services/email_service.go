package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// AWSSESMailer sends transactional email through AWS SES.
type AWSSESMailer struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

func NewAWSSESMailer(region, fromAddress string, logger *slog.Logger) (*AWSSESMailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESMailer{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

// SendWelcomeEmail greets a newly registered user.
func (m *AWSSESMailer) SendWelcomeEmail(ctx context.Context, email, name string) error {
	textBody := fmt.Sprintf(`Hi %s,

Welcome to Casaway! Your account is ready.

Browse stays, check availability and book rooms from your account. If you did
not create this account, please contact our support team.

This is an automated message. Please do not reply to this email.
`, name)

	return m.send(ctx, email, "Welcome to Casaway", textBody)
}

// SendBookingConfirmation notifies a guest that their booking was created.
func (m *AWSSESMailer) SendBookingConfirmation(ctx context.Context, email, name, reference string, checkIn, checkOut time.Time) error {
	textBody := fmt.Sprintf(`Hi %s,

Your booking %s is confirmed.

Check-in:  %s
Check-out: %s

You can review or cancel this booking from your account at any time before
check-in.

This is an automated message. Please do not reply to this email.
`, name, reference, checkIn.Format("Monday, 2 January 2006"), checkOut.Format("Monday, 2 January 2006"))

	return m.send(ctx, email, fmt.Sprintf("Booking %s confirmed", reference), textBody)
}

func (m *AWSSESMailer) send(ctx context.Context, email, subject, textBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(m.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := m.sesClient.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("email sent",
		slog.String("subject", subject),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}
