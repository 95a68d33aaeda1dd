package mailer

import (
	"bytes"
	"fmt"
	"text/template"
)

var bodies = map[string]*template.Template{
	TemplateWelcome: template.Must(template.New(TemplateWelcome).Parse(
		"Hi {{.Name}},\n\n" +
			"Your account was created successfully. You can now sign in with {{.Email}}.\n\n" +
			"If this wasn't you, reply to this email.\n",
	)),
	TemplateProfileUpdated: template.Must(template.New(TemplateProfileUpdated).Parse(
		"Hi {{.Name}},\n\n" +
			"Your profile was just updated. If you didn't make this change, reply to this email immediately.\n",
	)),
}

var subjects = map[string]string{
	TemplateWelcome:        "Welcome aboard",
	TemplateProfileUpdated: "Your profile was updated",
}

// Render resolves a template name into a subject and plain-text body.
func Render(name string, data map[string]any) (subject, text string, err error) {
	tpl, ok := bodies[name]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return subjects[name], buf.String(), nil
}
