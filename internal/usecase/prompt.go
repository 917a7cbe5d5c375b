package usecase

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.txt
var templatesFS embed.FS

var explainTmpl = template.Must(template.ParseFS(templatesFS, "templates/explain_prompt.txt"))

// PromptData fills the explanation prompt.
type PromptData struct {
	Top   string
	Query string
}

// RenderExplainPrompt builds the prompt asking why top is a good alternative
// to query.
func RenderExplainPrompt(top, query string) (string, error) {
	var buf bytes.Buffer
	if err := explainTmpl.Execute(&buf, PromptData{Top: top, Query: query}); err != nil {
		return "", fmt.Errorf("render explain prompt: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
