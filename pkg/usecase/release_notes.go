package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/releasebot/pkg/domain/interfaces"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

//go:embed prompts/release_notes_system.md
var releaseNotesSystemPrompt string

//go:embed prompts/release_notes_user.md
var releaseNotesUserTemplate string

type llmNotes struct {
	llmClient    gollem.LLMClient
	userTemplate *template.Template
}

var _ interfaces.ReleaseNotes = (*llmNotes)(nil)

// llmReleaseNotes is the JSON document the model is asked to return
type llmReleaseNotes struct {
	Summary  string `json:"summary"`
	Sections []struct {
		Title string   `json:"title"`
		Items []string `json:"items"`
	} `json:"sections"`
}

// NewLLMNotes drafts release notes with an LLM
func NewLLMNotes(llmClient gollem.LLMClient) (*llmNotes, error) {
	tmpl, err := template.New("user").Parse(releaseNotesUserTemplate)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse user prompt template")
	}

	return &llmNotes{
		llmClient:    llmClient,
		userTemplate: tmpl,
	}, nil
}

// Generate implements interfaces.ReleaseNotes
func (x *llmNotes) Generate(ctx context.Context, req *model.ReleaseRequest, commits []string) (string, error) {
	logger := ctxlog.From(ctx)

	previous := ""
	if !req.PreviousVersion.IsZero() {
		previous = req.PreviousVersion.String()
	}

	var buf bytes.Buffer
	if err := x.userTemplate.Execute(&buf, map[string]any{
		"Version":         req.Version.String(),
		"PreviousVersion": previous,
		"Commits":         commits,
	}); err != nil {
		return "", goerr.Wrap(err, "failed to execute user prompt template")
	}
	userPrompt := buf.String()

	logger.Debug("Calling LLM for release notes", "prompt_length", len(userPrompt), "commits", len(commits))

	session, err := x.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionSystemPrompt(releaseNotesSystemPrompt),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(userPrompt))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate LLM content")
	}

	if len(resp.Texts) == 0 {
		return "", goerr.New("no response from LLM")
	}

	var notes llmReleaseNotes
	if err := json.Unmarshal([]byte(resp.Texts[0]), &notes); err != nil {
		return "", goerr.Wrap(err, "failed to parse LLM response", goerr.V("response", resp.Texts[0]))
	}

	return formatReleaseNotes(req.Version, &notes), nil
}

func formatReleaseNotes(version model.Version, notes *llmReleaseNotes) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## %s\n\n", version))
	if summary := strings.TrimSpace(notes.Summary); summary != "" {
		sb.WriteString(summary + "\n")
	}

	for _, section := range notes.Sections {
		if len(section.Items) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n### %s\n\n", section.Title))
		for _, item := range section.Items {
			sb.WriteString(fmt.Sprintf("- %s\n", item))
		}
	}

	return sb.String()
}
