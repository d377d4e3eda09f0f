package email

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/zfogg/brandcast/internal/publish"
	"github.com/zfogg/brandcast/internal/telemetry"
)

// EmailService handles sending emails via AWS SES
type EmailService struct {
	client    *ses.Client
	fromEmail string
	fromName  string
	baseURL   string
}

// NewEmailService creates a new email service using AWS SES
func NewEmailService(region, fromEmail, fromName, baseURL string) (*EmailService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := ses.NewFromConfig(cfg)

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		baseURL:   baseURL,
	}, nil
}

var _ publish.FailureMailer = (*EmailService)(nil)

// SendPublishFailureEmail tells the owner which platforms a post could not reach
func (e *EmailService) SendPublishFailureEmail(ctx context.Context, toEmail, name, entryTitle string, failures []publish.Failure) error {
	msg := renderFailureEmail(e.baseURL, name, entryTitle, failures)
	if err := e.send(ctx, toEmail, msg); err != nil {
		return fmt.Errorf("failed to send publish failure email: %w", err)
	}
	return nil
}

type message struct {
	Subject string
	HTML    string
	Text    string
}

func renderFailureEmail(baseURL, name, entryTitle string, failures []publish.Failure) message {
	platforms := make([]string, 0, len(failures))
	for _, f := range failures {
		platforms = append(platforms, f.Platform)
	}
	calendarURL := strings.TrimSuffix(baseURL, "/") + "/calendar"
	if name == "" {
		name = "there"
	}

	var rows, lines strings.Builder
	for _, f := range failures {
		fmt.Fprintf(&rows, "<li><strong>%s</strong>: %s</li>", html.EscapeString(f.Platform), html.EscapeString(f.Error))
		fmt.Fprintf(&lines, "- %s: %s\n", f.Platform, f.Error)
	}

	htmlBody := fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<head>
			<meta charset="UTF-8">
			<style>
				body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; }
				.container { max-width: 600px; margin: 0 auto; padding: 20px; }
				.button { display: inline-block; padding: 12px 24px; background-color: #ff5a36; color: white; text-decoration: none; border-radius: 6px; margin: 20px 0; }
			</style>
		</head>
		<body>
			<div class="container">
				<h1>Your post was not published everywhere</h1>
				<p>Hi %s,</p>
				<p>We could not publish <strong>%s</strong> to the following platforms:</p>
				<ul>%s</ul>
				<p>You can reconnect the account or retry from your content calendar.</p>
				<a href="%s" class="button">Open calendar</a>
				<hr>
				<p style="color: #999; font-size: 12px;">This is an automated message from Brandcast. You can turn these emails off in your settings.</p>
			</div>
		</body>
		</html>
	`, html.EscapeString(name), html.EscapeString(entryTitle), rows.String(), calendarURL)

	textBody := fmt.Sprintf(`
Hi %s,

We could not publish "%s" to the following platforms:

%s
You can reconnect the account or retry from your content calendar:
%s

This is an automated message from Brandcast.
	`, name, entryTitle, lines.String(), calendarURL)

	return message{
		Subject: fmt.Sprintf("Publishing failed on %s: %s", strings.Join(platforms, ", "), entryTitle),
		HTML:    htmlBody,
		Text:    textBody,
	}
}

func (e *EmailService) send(ctx context.Context, toEmail string, msg message) error {
	from := e.fromEmail
	if e.fromName != "" {
		from = fmt.Sprintf("%s <%s>", e.fromName, e.fromEmail)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(msg.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(msg.HTML),
					Charset: aws.String("UTF-8"),
				},
				Text: &types.Content{
					Data:    aws.String(msg.Text),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	ctx, span := telemetry.TraceEmailCall(ctx, "publish_failure")
	_, err := e.client.SendEmail(ctx, input)
	telemetry.EndSpan(span, err)
	return err
}
