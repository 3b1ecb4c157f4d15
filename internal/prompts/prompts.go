package prompts

import (
	"bytes"
	"embed"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl templates/guardrail.txt
var files embed.FS

var (
	guardrail = mustRead("templates/guardrail.txt")

	constraintParsingTemplate = mustParse("constraint_parsing.tmpl")
	jobTopicExtractTemplate   = mustParse("job_topic_extract.tmpl")
	verifierTemplate          = mustParse("verifier.tmpl")
)

// Guardrail is the system preamble sent ahead of every prompt.
func Guardrail() string {
	return guardrail
}

func ConstraintParsing(instruction string) (string, error) {
	return render(constraintParsingTemplate, struct{ Instruction string }{instruction})
}

func JobTopicExtract(jobText string) (string, error) {
	return render(jobTopicExtractTemplate, struct{ JobText string }{jobText})
}

type VerifierInput struct {
	TopCompanies      string
	ParsedConstraints string
	EvidenceSummary   string
}

func Verifier(in VerifierInput) (string, error) {
	return render(verifierTemplate, in)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func mustRead(name string) string {
	b, err := files.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return strings.TrimSpace(string(b))
}

func mustParse(name string) *template.Template {
	return template.Must(template.New(name).ParseFS(files, "templates/"+name))
}
