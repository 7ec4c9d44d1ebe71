// Package catalog holds the static follow-up sequence definitions: for each
// service, an ordered set of five email stages with subject/body templates,
// send delays and tags.
//
// Catalog entries are read-only configuration. Personalization placeholders
// form a closed set ({{name}}, {{email}}, {{service}}) validated when the
// catalog is constructed, so a typo'd token fails at startup instead of
// leaking into a sent email.
package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/arosling/stageside/internal/domain"
)

// StageTemplate is one template/delay pair within a service's sequence.
type StageTemplate struct {
	Type        domain.EmailTemplateType `json:"type"`
	Subject     string                   `json:"subject"`
	HTMLContent string                   `json:"html_content"`
	TextContent string                   `json:"text_content"`
	DelayHours  int                      `json:"delay_hours"`
	Tags        []string                 `json:"tags,omitempty"`
}

// Catalog is the validated, immutable set of sequence definitions.
type Catalog struct {
	byService map[domain.ServiceType][]StageTemplate
}

// tokenPattern matches {{token}} placeholders in template text.
var tokenPattern = regexp.MustCompile(`\{\{([a-zA-Z_]+)\}\}`)

// allowedTokens is the closed set of personalization placeholders.
var allowedTokens = map[string]bool{
	"name":    true,
	"email":   true,
	"service": true,
}

// New builds and validates the catalog. It fails if any service is missing a
// stage, stages are out of delay order, or a template references an unknown
// placeholder.
func New() (*Catalog, error) {
	c := &Catalog{byService: defaultTemplates()}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("catalog validation: %w", err)
	}
	return c, nil
}

// Templates returns the ordered stage templates for a service, or nil when
// the service is unknown. The returned slice is a copy; the catalog itself
// is never mutated.
func (c *Catalog) Templates(service domain.ServiceType) []StageTemplate {
	stages, ok := c.byService[service]
	if !ok {
		return nil
	}
	out := make([]StageTemplate, len(stages))
	copy(out, stages)
	return out
}

// Stage returns a single stage template for a service.
func (c *Catalog) Stage(service domain.ServiceType, stage domain.EmailTemplateType) (*StageTemplate, bool) {
	for _, t := range c.byService[service] {
		if t.Type == stage {
			tc := t
			return &tc, true
		}
	}
	return nil, false
}

// StageCount returns the number of stages per sequence.
func (c *Catalog) StageCount() int {
	return len(domain.StageOrder)
}

// Render substitutes the closed set of placeholders into template text.
// Unknown tokens cannot occur in a validated catalog.
func Render(text string, vars map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(match string) string {
		token := tokenPattern.FindStringSubmatch(match)[1]
		if v, ok := vars[token]; ok {
			return v
		}
		return match
	})
}

func (c *Catalog) validate() error {
	for _, service := range domain.AllServiceTypes {
		stages, ok := c.byService[service]
		if !ok {
			return fmt.Errorf("service %s has no sequence", service)
		}
		if len(stages) != len(domain.StageOrder) {
			return fmt.Errorf("service %s has %d stages, want %d", service, len(stages), len(domain.StageOrder))
		}
		prevDelay := -1
		for i, stage := range stages {
			if stage.Type != domain.StageOrder[i] {
				return fmt.Errorf("service %s stage %d is %s, want %s", service, i, stage.Type, domain.StageOrder[i])
			}
			if i == 0 && stage.DelayHours != 0 {
				return fmt.Errorf("service %s: %s must have zero delay", service, stage.Type)
			}
			if stage.DelayHours <= prevDelay {
				return fmt.Errorf("service %s: delays must strictly increase, %s has %dh after %dh",
					service, stage.Type, stage.DelayHours, prevDelay)
			}
			prevDelay = stage.DelayHours
			for _, field := range []struct{ name, text string }{
				{"subject", stage.Subject},
				{"html_content", stage.HTMLContent},
				{"text_content", stage.TextContent},
			} {
				if strings.TrimSpace(field.text) == "" {
					return fmt.Errorf("service %s stage %s: empty %s", service, stage.Type, field.name)
				}
				if err := validateTokens(field.text); err != nil {
					return fmt.Errorf("service %s stage %s %s: %w", service, stage.Type, field.name, err)
				}
			}
		}
	}
	return nil
}

// validateTokens rejects any placeholder outside the closed set.
func validateTokens(text string) error {
	for _, match := range tokenPattern.FindAllStringSubmatch(text, -1) {
		if !allowedTokens[match[1]] {
			return fmt.Errorf("unknown placeholder {{%s}}", match[1])
		}
	}
	return nil
}
