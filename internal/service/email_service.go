package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"mindquest/internal/assessment"
	"mindquest/internal/logger"
	"mindquest/internal/models"
)

// sesClient is the part of the SES API the email service calls
type sesClient interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends risk reports to parents via Amazon SES
type EmailService struct {
	client     sesClient
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	log        *logger.Logger
}

// NewEmailService creates a new email service. An empty fromEmail gives a disabled service.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, log *logger.Logger) (*EmailService, error) {
	log = logger.OrNop(log)

	if fromEmail == "" {
		log.Info("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, appBaseURL: appBaseURL, log: log}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("Email service enabled", "from", fromEmail, "region", awsRegion)
	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		log:        log,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendRiskReport emails the dashboard summary of a session with a link to the read-only report
func (s *EmailService) SendRiskReport(ctx context.Context, toEmail string, dashboard assessment.Dashboard, reportToken string) error {
	if !s.enabled {
		s.log.Info("Skipping email send (service disabled)", "kind", "risk report", "session", dashboard.ID)
		return nil
	}

	link := fmt.Sprintf("%s/api/reports/%s?token=%s", strings.TrimSuffix(s.appBaseURL, "/"), dashboard.ID, reportToken)
	subject := fmt.Sprintf("MindQuest results for %s", dashboard.Profile.Name)
	htmlBody, textBody := renderReport(dashboard, link)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

var reportConditions = []struct {
	condition models.Condition
	label     string
}{
	{models.ConditionDyslexia, "Reading & language"},
	{models.ConditionDyscalculia, "Numbers & maths"},
	{models.ConditionDysgraphia, "Writing & motor skills"},
	{models.ConditionADHD, "Attention & focus"},
	{models.ConditionDyspraxia, "Coordination"},
}

func renderReport(d assessment.Dashboard, link string) (string, string) {
	name := html.EscapeString(d.Profile.Name)

	var rows, lines strings.Builder
	for _, rc := range reportConditions {
		v := d.Risk.Get(rc.condition)
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%.0f</td></tr>\n", rc.label, v)
		fmt.Fprintf(&lines, "- %s: %.0f\n", rc.label, v)
	}

	var items, itemLines strings.Builder
	for _, ind := range d.Summary {
		fmt.Fprintf(&items, "<li><strong>%s</strong>: %s</li>\n", html.EscapeString(ind.Area), html.EscapeString(ind.Condition))
		fmt.Fprintf(&itemLines, "- %s: %s\n", ind.Area, ind.Condition)
	}
	if len(d.Summary) == 0 {
		items.WriteString("<li>No areas of concern were flagged.</li>\n")
		itemLines.WriteString("- No areas of concern were flagged.\n")
	}

	played := []string{}
	for id, stat := range d.Games {
		if stat.Played {
			played = append(played, string(id))
		}
	}
	sort.Strings(played)
	gamesPlayed := "none yet"
	if len(played) > 0 {
		gamesPlayed = strings.Join(played, ", ")
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #6c5ce7; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #6c5ce7; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>MindQuest Results</h1>
		</div>
		<div class="content">
			<p>Here is the latest screening summary for %s (overall level: <strong>%s</strong>).</p>
			<table>
%s			</table>
			<p>Highlights:</p>
			<ul>
%s			</ul>
			<p>Games played: %s</p>
			<p style="text-align: center;">
				<a href="%s" class="button">Open Full Report</a>
			</p>
			<p>This is a screening aid, not a diagnosis. Please talk to a specialist about any concerns.</p>
		</div>
		<div class="footer">
			<p>This is an automated email from MindQuest. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, name, d.Risk.Overall, rows.String(), items.String(), gamesPlayed, link)

	textBody := fmt.Sprintf(`Here is the latest screening summary for %s (overall level: %s).

%s
Highlights:
%s
Games played: %s

Full report: %s

This is a screening aid, not a diagnosis. Please talk to a specialist about any concerns.

---
This is an automated email from MindQuest. Please do not reply.
`, d.Profile.Name, d.Risk.Overall, lines.String(), itemLines.String(), gamesPlayed, link)

	return htmlBody, textBody
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
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	messageID := ""
	if result != nil && result.MessageId != nil {
		messageID = *result.MessageId
	}
	s.log.Info("Email sent successfully", "to", toEmail, "subject", subject, "messageId", messageID)
	return nil
}
