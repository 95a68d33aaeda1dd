package mailer

// Template names understood by the worker.
const (
	TemplateWelcome        = "welcome"
	TemplateProfileUpdated = "profile_updated"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// When Template is set the worker renders subject/text from it; otherwise
// Subject and Text are used as-is.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}
