package openai

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptSpec holds one prompt and its model parameters
type PromptSpec struct {
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	System       string  `yaml:"system"`
	UserTemplate string  `yaml:"user_template"`
}

// PromptConfig holds the prompts used by the trip advisor
type PromptConfig struct {
	TripReview PromptSpec `yaml:"trip_review"`
}

// DefaultPrompts returns the built-in prompts
func DefaultPrompts() *PromptConfig {
	return &PromptConfig{
		TripReview: PromptSpec{
			Temperature: 0.2,
			MaxTokens:   600,
			System: "You review corporate business-trip requests for approvers. " +
				"Judge whether the cost estimate is plausible for the destination and duration " +
				"and whether the purpose justifies travel. Respond with a JSON object only.",
			UserTemplate: `Review this business-trip request.

Destination: {{.Destination}}
Purpose: {{.Purpose}}
Dates: {{.StartDate}} to {{.EndDate}}{{if .Days}} ({{.Days}} days){{end}}
Cost estimate: {{.CostEstimate}}

Respond with JSON: {"reasonable": bool, "concerns": [string], "summary": string}`,
		},
	}
}

// LoadPrompts loads prompt configuration from a YAML file.
// Sections missing from the file keep the built-in defaults.
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	prompts := DefaultPrompts()
	if err := yaml.Unmarshal(data, prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}
	if _, err := template.New("trip_review").Parse(prompts.TripReview.UserTemplate); err != nil {
		return nil, fmt.Errorf("invalid trip_review template: %w", err)
	}

	return prompts, nil
}

// renderTemplate renders a template with provided data
func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
