package email

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// TemplateManager хранит шаблоны с плейсхолдерами {name}.
// Неизвестные плейсхолдеры остаются в тексте как есть.
type TemplateManager struct {
	templates map[string]string
	mutex     sync.RWMutex
}

// NewTemplateManager создает новый менеджер шаблонов
func NewTemplateManager() *TemplateManager {
	return &TemplateManager{
		templates: make(map[string]string),
	}
}

// Render рендерит шаблон с данными
func (tm *TemplateManager) Render(templateName string, data TemplateData) (string, error) {
	tm.mutex.RLock()
	tpl, exists := tm.templates[templateName]
	tm.mutex.RUnlock()

	if !exists {
		return "", fmt.Errorf("template not found: %s", templateName)
	}
	return RenderString(tpl, data), nil
}

// AddTemplate добавляет шаблон в менеджер
func (tm *TemplateManager) AddTemplate(name string, templateStr string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("template name is required")
	}
	tm.mutex.Lock()
	tm.templates[name] = templateStr
	tm.mutex.Unlock()
	return nil
}

// RenderString подставляет значения в одну строку шаблона
func RenderString(tpl string, data TemplateData) string {
	if len(data) == 0 {
		return tpl
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(data)*2)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", data[k])
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
