package domain

import (
	"fmt"
	"strings"
	"time"
)

// MessageTemplate is a named, typed message template with {variable} placeholders.
// Only active templates are resolvable; a template is immutable during a render.
type MessageTemplate struct {
	ID             string
	Name           string
	Description    string
	TemplateType   Channel
	Subject        string
	Content        string
	HTMLContent    string
	DefaultContext map[string]string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (t *MessageTemplate) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: template name is required", ErrValidation)
	}
	if !t.TemplateType.IsValid() {
		return fmt.Errorf("%w: invalid template type %q", ErrValidation, t.TemplateType)
	}
	if strings.TrimSpace(t.Content) == "" {
		return fmt.Errorf("%w: template content is required", ErrValidation)
	}
	if t.TemplateType == ChannelEmail && strings.TrimSpace(t.Subject) == "" {
		return fmt.Errorf("%w: subject is required for email templates", ErrValidation)
	}
	return nil
}

// MergedContext overlays the caller context on top of the template defaults.
func (t *MessageTemplate) MergedContext(context map[string]string) map[string]string {
	merged := make(map[string]string, len(t.DefaultContext)+len(context))
	for k, v := range t.DefaultContext {
		merged[k] = v
	}
	for k, v := range context {
		merged[k] = v
	}
	return merged
}
