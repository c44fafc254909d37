package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/ivoo-app/reset-service/pkg/logger"
)

// ResetEmailParams carries everything the reset email template needs.
// ResetLink embeds the raw token; it must never be logged or stored.
type ResetEmailParams struct {
	RecipientEmail   string
	RecipientName    string
	ResetLink        string
	ExpiresInMinutes int
	SupportContact   string
}

// EmailService defines the interface for sending password reset emails
type EmailService interface {
	SendResetEmail(ctx context.Context, params ResetEmailParams) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient      *ses.Client
	fromAddress    string
	supportContact string
	logger         *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress, supportContact string, log *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:      ses.NewFromConfig(cfg),
		fromAddress:    fromAddress,
		supportContact: supportContact,
		logger:         log,
	}, nil
}

// SendResetEmail sends a password reset email containing the one-time link
func (s *AWSSESEmailService) SendResetEmail(ctx context.Context, params ResetEmailParams) error {
	greeting := "Hello,"
	if params.RecipientName != "" {
		greeting = fmt.Sprintf("Hello %s,", params.RecipientName)
	}

	if params.SupportContact == "" {
		params.SupportContact = s.supportContact
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 4px; }
        .content { padding: 20px 0; }
        .button { display: inline-block; background-color: #0066cc; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
        .warning { background-color: #fff3cd; padding: 10px; border-left: 4px solid #ffc107; margin: 10px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Reset Your Password</h1>
        </div>
        <div class="content">
            <p>%s</p>
            <p>We received a request to reset the password for your account. Click the button below to choose a new password:</p>
            <p><a href="%s" class="button">Reset Password</a></p>
            <p>Or copy and paste this link in your browser:<br>
            <code>%s</code></p>
            <div class="warning">
                <strong>⚠️ Security Notice:</strong> This link will expire in %d minutes and can only be used once.
            </div>
            <p><strong>Didn't request this?</strong><br>
            If you didn't ask to reset your password, you can safely ignore this email. Your password will not change.</p>
        </div>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
            <p>If you have any questions, please contact %s.</p>
        </div>
    </div>
</body>
</html>
`, greeting, params.ResetLink, params.ResetLink, params.ExpiresInMinutes, params.SupportContact)

	textBody := fmt.Sprintf(`Reset Your Password

%s

We received a request to reset the password for your account. Open the link below to choose a new password:

%s

⚠️  Security Notice: This link will expire in %d minutes and can only be used once.

Didn't request this?
If you didn't ask to reset your password, you can safely ignore this email. Your password will not change.

This is an automated message. Please do not reply to this email.
If you have any questions, please contact %s.
`, greeting, params.ResetLink, params.ExpiresInMinutes, params.SupportContact)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{params.RecipientEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Reset your password"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send reset email via SES",
			slog.String("email", logger.SanitizedEmail(params.RecipientEmail)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("reset email sent",
		slog.String("email", logger.SanitizedEmail(params.RecipientEmail)),
		slog.String("message_id", *result.MessageId))

	return nil
}
