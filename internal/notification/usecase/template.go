package usecase

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/shandysiswandi/goverify/internal/notification/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	templatesOnce sync.Once
	templates     map[entity.TriggerKey]*template.Template
	templatesErr  error
)

func loadTemplates() (map[entity.TriggerKey]*template.Template, error) {
	templatesOnce.Do(func() {
		keys := []entity.TriggerKey{
			entity.TriggerKeyEmailConfirmationCode,
			entity.TriggerKeyPasswordResetCode,
			entity.TriggerKeyEmailConfirmed,
			entity.TriggerKeyPasswordChanged,
		}
		templates = make(map[entity.TriggerKey]*template.Template, len(keys))
		for _, key := range keys {
			t, err := template.New(key.String()).Option("missingkey=zero").
				ParseFS(templateFS, "templates/"+key.String()+".html")
			if err != nil {
				templatesErr = fmt.Errorf("parse template %s: %w", key, err)
				return
			}
			templates[key] = t
		}
	})
	return templates, templatesErr
}

// renderTemplate executes the "subject" and "body" blocks of the template
// registered for tk.
func renderTemplate(tk entity.TriggerKey, data map[string]any) (*entity.Template, error) {
	all, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	t, ok := all[tk]
	if !ok {
		return nil, fmt.Errorf("no template for %s", tk)
	}

	var subject, body bytes.Buffer
	if err := t.ExecuteTemplate(&subject, "subject", data); err != nil {
		return nil, err
	}
	if err := t.ExecuteTemplate(&body, "body", data); err != nil {
		return nil, err
	}

	return &entity.Template{
		TriggerKey: tk,
		Subject:    strings.TrimSpace(subject.String()),
		Body:       body.String(),
	}, nil
}
