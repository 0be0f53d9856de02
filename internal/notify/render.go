package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/onedigit/site-engine/internal/models"
)

const assessmentHTML = `<h2>New AI Readiness Assessment</h2>
<p><strong>Name:</strong> {{.Respondent.Name}}</p>
<p><strong>Email:</strong> {{.Respondent.Email}}</p>
<p><strong>Company:</strong> {{.Respondent.Company}}</p>
<p><strong>Role:</strong> {{.Respondent.Role}}</p>
<h3>Results</h3>
<p><strong>Overall:</strong> {{.Result.OverallPercentage}}% ({{.Result.Band}})</p>
<p>{{range $i, $p := .Result.PillarScores}}{{if $i}}<br/>{{end}}{{$p.Name}}: {{$p.Percentage}}%{{end}}</p>
<h3>Recommendations</h3>
<ul>{{range .Result.Recommendations}}<li>{{.}}</li>{{end}}</ul>
`

const assessmentText = `New AI Readiness Assessment

Name: {{.Respondent.Name}}
Email: {{.Respondent.Email}}
Company: {{.Respondent.Company}}
Role: {{.Respondent.Role}}

Overall: {{.Result.OverallPercentage}}% ({{.Result.Band}})
{{range .Result.PillarScores}}{{.Name}}: {{.Percentage}}%
{{end}}
Recommendations:
{{range .Result.Recommendations}}- {{.}}
{{end}}`

const contactHTML = `<h2>New Contact Form Submission</h2>
<p><strong>Name:</strong> {{.Respondent.Name}}</p>
<p><strong>Email:</strong> {{.Respondent.Email}}</p>
<p><strong>Company:</strong> {{.Respondent.Company}}</p>
<p><strong>Role:</strong> {{with .Respondent.Role}}{{.}}{{else}}Not specified{{end}}</p>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
`

const contactText = `New Contact Form Submission

Name: {{.Respondent.Name}}
Email: {{.Respondent.Email}}
Company: {{.Respondent.Company}}
Role: {{with .Respondent.Role}}{{.}}{{else}}Not specified{{end}}

{{.Message}}
`

var (
	assessmentHTMLTmpl = htmltemplate.Must(htmltemplate.New("assessment").Parse(assessmentHTML))
	assessmentTextTmpl = texttemplate.Must(texttemplate.New("assessment").Parse(assessmentText))
	contactHTMLTmpl    = htmltemplate.Must(htmltemplate.New("contact").Parse(contactHTML))
	contactTextTmpl    = texttemplate.Must(texttemplate.New("contact").Parse(contactText))
)

// RenderAssessment builds the alert for a scored assessment lead
func RenderAssessment(lead *models.Lead) (*Notification, error) {
	if lead == nil || lead.Result == nil {
		return nil, fmt.Errorf("assessment lead has no result")
	}

	n := &Notification{
		Kind: models.LeadAssessment,
		Subject: fmt.Sprintf("AI Readiness Assessment: %s from %s — %s (%d%%)",
			lead.Respondent.Name, lead.Respondent.Company, lead.Result.Band, lead.Result.OverallPercentage),
		Lead: lead,
	}

	var err error
	if n.HTML, err = renderHTML(assessmentHTMLTmpl, lead); err != nil {
		return nil, err
	}
	if n.Text, err = renderText(assessmentTextTmpl, lead); err != nil {
		return nil, err
	}
	return n, nil
}

// RenderContact builds the alert for a contact form lead
func RenderContact(lead *models.Lead) (*Notification, error) {
	if lead == nil {
		return nil, fmt.Errorf("contact lead is nil")
	}

	n := &Notification{
		Kind:    models.LeadContact,
		Subject: fmt.Sprintf("New Contact: %s from %s", lead.Respondent.Name, lead.Respondent.Company),
		Lead:    lead,
	}

	var err error
	if n.HTML, err = renderHTML(contactHTMLTmpl, lead); err != nil {
		return nil, err
	}
	if n.Text, err = renderText(contactTextTmpl, lead); err != nil {
		return nil, err
	}
	return n, nil
}

func renderHTML(t *htmltemplate.Template, lead *models.Lead) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, lead); err != nil {
		return "", fmt.Errorf("failed to render %s html: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func renderText(t *texttemplate.Template, lead *models.Lead) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, lead); err != nil {
		return "", fmt.Errorf("failed to render %s text: %w", t.Name(), err)
	}
	return buf.String(), nil
}
