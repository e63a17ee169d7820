package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	texttemplate "text/template"

	"finlearn/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
	log        *logger.Logger
}

// EmailConfig holds the settings for the SES sender
type EmailConfig struct {
	AWSRegion  string
	FromEmail  string
	FromName   string
	AppBaseURL string
	Debug      bool
}

// NewEmailService creates a new email service. Without a sender address the
// service is disabled and only logs what it would have sent.
func NewEmailService(ctx context.Context, cfg EmailConfig, log *logger.Logger) (*EmailService, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("service", "EmailService")

	if cfg.FromEmail == "" {
		log.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{appBaseURL: cfg.AppBaseURL, debug: cfg.Debug, log: log}, nil
	}

	if cfg.Debug {
		log.Debug("initializing email service", "region", cfg.AWSRegion, "from_name", cfg.FromName, "app_base_url", cfg.AppBaseURL)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("email service enabled", "region", cfg.AWSRegion)
	return &EmailService{
		client:     sesv2.NewFromConfig(awsCfg),
		fromEmail:  cfg.FromEmail,
		fromName:   cfg.FromName,
		appBaseURL: cfg.AppBaseURL,
		enabled:    true,
		debug:      cfg.Debug,
		log:        log,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

type emailData struct {
	Name    string
	Link    string
	Heading string
	Intro   string
	Action  string
	Expiry  string
	Ignore  string
}

var emailHTML = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #1f7a4d; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #1f7a4d; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header"><h1>{{.Heading}}</h1></div>
		<div class="content">
			<p>Hi {{.Name}},</p>
			<p>{{.Intro}}</p>
			<p style="text-align: center;"><a href="{{.Link}}" class="button">{{.Action}}</a></p>
			<p>Or copy and paste this link into your browser:</p>
			<p style="word-break: break-all; font-size: 12px; color: #666;">{{.Link}}</p>
			<p><strong>{{.Expiry}}</strong></p>
			<p>{{.Ignore}}</p>
		</div>
		<div class="footer"><p>This is an automated email from Finlearn. Please do not reply.</p></div>
	</div>
</body>
</html>
`))

var emailText = texttemplate.Must(texttemplate.New("email").Parse(`Hi {{.Name}},

{{.Intro}}

{{.Action}}: {{.Link}}

{{.Expiry}}

{{.Ignore}}

---
This is an automated email from Finlearn. Please do not reply.
`))

// SendVerificationEmail sends the link that confirms a new account's address
func (s *EmailService) SendVerificationEmail(ctx context.Context, toEmail, toName, token string) error {
	return s.send(ctx, toEmail, "Verify your Finlearn email address", emailData{
		Name:    toName,
		Link:    fmt.Sprintf("%s/auth/verify-email/%s", s.appBaseURL, token),
		Heading: "Welcome to Finlearn!",
		Intro:   "Thanks for signing up. Please confirm your email address to start tracking your progress.",
		Action:  "Verify Email",
		Expiry:  "This link will expire in 24 hours.",
		Ignore:  "If you didn't create a Finlearn account, you can safely ignore this email.",
	})
}

// SendPasswordResetEmail sends a password reset email with a reset link
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, token string) error {
	return s.send(ctx, toEmail, "Reset your Finlearn password", emailData{
		Name:    toName,
		Link:    fmt.Sprintf("%s/auth/reset-password/%s", s.appBaseURL, token),
		Heading: "Password Reset Request",
		Intro:   "We received a request to reset the password for your Finlearn account.",
		Action:  "Reset Password",
		Expiry:  "This link will expire in 1 hour.",
		Ignore:  "If you didn't request a password reset, you can safely ignore this email.",
	})
}

func (s *EmailService) send(ctx context.Context, toEmail, subject string, data emailData) error {
	if !s.enabled {
		s.log.Info("skipping email send (service disabled)", "subject", subject)
		if s.debug {
			s.log.Debug("email link", "link", data.Link)
		}
		return nil
	}

	var htmlBody, textBody bytes.Buffer
	if err := emailHTML.Execute(&htmlBody, data); err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}
	if err := emailText.Execute(&textBody, data); err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}
	return s.sendEmail(ctx, toEmail, subject, htmlBody.String(), textBody.String())
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if s.debug && result.MessageId != nil {
		s.log.Debug("SES message accepted", "message_id", *result.MessageId)
	}
	s.log.Info("email sent", "subject", subject)
	return nil
}
