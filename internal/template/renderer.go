// Package template renders message templates by substituting {name}
// placeholders from a context map. Rendering is pure and deterministic:
// no side effects, no code execution, unknown placeholders left intact.
package template

import (
	"regexp"

	"github.com/gestionis/notify-core/internal/domain"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Rendered holds the three independently rendered template parts.
type Rendered struct {
	Subject string
	Content string
	HTML    string
}

// Render evaluates subject, plain content, and HTML content against the
// template defaults overlaid with the caller-supplied context.
func Render(tpl *domain.MessageTemplate, context map[string]string) Rendered {
	merged := tpl.MergedContext(context)
	return Rendered{
		Subject: substitute(tpl.Subject, merged),
		Content: substitute(tpl.Content, merged),
		HTML:    substitute(tpl.HTMLContent, merged),
	}
}

func substitute(text string, context map[string]string) string {
	if text == "" || len(context) == 0 {
		return text
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := context[name]; ok {
			return value
		}
		return match
	})
}
