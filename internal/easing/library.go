package easing

import (
	"sort"
	"strings"
	"sync"
)

// Library maps lower-case transition tags to samplers.
type Library struct {
	mu       sync.RWMutex
	samplers map[string]Sampler
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{samplers: make(map[string]Sampler)}
}

// Register adds or replaces the sampler for a tag. Tags are matched case-insensitively.
func (l *Library) Register(tag string, s Sampler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samplers[strings.ToLower(tag)] = s
}

// Lookup returns the sampler for a tag. Unknown tags report false.
func (l *Library) Lookup(tag string) (Sampler, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.samplers[strings.ToLower(tag)]
	return s, ok
}

// Names returns the registered tags in sorted order.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.samplers))
	for name := range l.samplers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tags.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.samplers)
}

// curves lists the scalar easings by the tag the authoring tool writes.
var curves = map[string]Func{
	"easeinquad":       InQuad,
	"easeoutquad":      OutQuad,
	"easeinoutquad":    InOutQuad,
	"easeincubic":      InCubic,
	"easeoutcubic":     OutCubic,
	"easeinoutcubic":   InOutCubic,
	"easeinquart":      InQuart,
	"easeoutquart":     OutQuart,
	"easeinoutquart":   InOutQuart,
	"easeinquint":      InQuint,
	"easeoutquint":     OutQuint,
	"easeinoutquint":   InOutQuint,
	"easeinsine":       InSine,
	"easeoutsine":      OutSine,
	"easeinoutsine":    InOutSine,
	"easeinexpo":       InExpo,
	"easeoutexpo":      OutExpo,
	"easeinoutexpo":    InOutExpo,
	"easeincirc":       InCirc,
	"easeoutcirc":      OutCirc,
	"easeinoutcirc":    InOutCirc,
	"easeinelastic":    InElastic,
	"easeoutelastic":   OutElastic,
	"easeinoutelastic": InOutElastic,
	"easeinback":       InBack,
	"easeoutback":      OutBack,
	"easeinoutback":    InOutBack,
	"easeinbounce":     InBounce,
	"easeoutbounce":    OutBounce,
	"easeinoutbounce":  InOutBounce,
}

// Tags for the two Bezier samplers.
const (
	TagBezierQuadratic = "bezierquadratic"
	TagBezierCubic     = "beziercubic"
)

var defaultLibrary = sync.OnceValue(func() *Library {
	l := NewLibrary()
	for tag, f := range curves {
		l.Register(tag, FromFunc(f))
	}
	l.Register(TagBezierQuadratic, QuadraticBezierTag)
	l.Register(TagBezierCubic, CubicBezierTag)
	return l
})

// Default returns the shared library with every built-in curve registered.
func Default() *Library {
	return defaultLibrary()
}
