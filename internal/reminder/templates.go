package reminder

import (
	"math/rand"
	"sync"

	"github.com/eleven-am/classwatch/internal/alert"
)

type Category string

const (
	CategoryEngagement Category = "engagement"
	CategoryTTT        Category = "ttt"
	CategoryTechnical  Category = "technical"
	CategoryPacing     Category = "pacing"
	CategoryMotivation Category = "motivation"
)

// CategoryFor maps a breach type to the template category coaching it.
func CategoryFor(typ alert.Type) Category {
	switch typ {
	case alert.TypeTTTHigh:
		return CategoryTTT
	case alert.TypeLowEngagement:
		return CategoryEngagement
	case alert.TypeTechnicalIssue, alert.TypeNoCamera, alert.TypeStaleTelemetry:
		return CategoryTechnical
	case alert.TypeLongSilence:
		return CategoryPacing
	default:
		return CategoryMotivation
	}
}

// Picker chooses an index in [0, n). The default is rand-backed; tests
// swap in a deterministic one.
type Picker interface {
	Pick(n int) int
}

type randPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandPicker(seed int64) Picker {
	return &randPicker{rng: rand.New(rand.NewSource(seed))}
}

func (p *randPicker) Pick(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Intn(n)
}

// TemplatePool is the static category -> candidate messages mapping.
type TemplatePool struct {
	templates map[Category][]string
}

func NewTemplatePool() *TemplatePool {
	return &TemplatePool{templates: defaultTemplates}
}

// Templates returns the ordered candidates for a category; empty categories
// fall back to motivation.
func (p *TemplatePool) Templates(cat Category) []string {
	if t, ok := p.templates[cat]; ok && len(t) > 0 {
		return t
	}
	return p.templates[CategoryMotivation]
}

// Draw picks one candidate for the category using the given picker.
func (p *TemplatePool) Draw(cat Category, picker Picker) string {
	t := p.Templates(cat)
	return t[picker.Pick(len(t))]
}

var defaultTemplates = map[Category][]string{
	CategoryEngagement: {
		"Student engagement is dropping. Try asking an open question to bring them back in.",
		"Engagement looks low right now. A quick interactive exercise could help.",
		"Consider inviting the student to share their own example on this topic.",
	},
	CategoryTTT: {
		"You have been doing most of the talking. Give the student more room to speak.",
		"Teacher talk time is running high. Try a question and hold the pause.",
		"Let the student lead the next few minutes of the conversation.",
	},
	CategoryTechnical: {
		"Your camera or microphone appears to be off. Please check your setup.",
		"There seems to be a technical issue with audio or video on your side.",
	},
	CategoryPacing: {
		"There has been a long stretch of silence. Check in with the student.",
		"The session has gone quiet. A prompt or recap can restart the flow.",
	},
	CategoryMotivation: {
		"A quick word of encouragement can go a long way right now.",
		"Acknowledge the student's progress so far before moving on.",
	},
}
