// Package export assembles expanded bones into the runtime animation document
// and encodes it as text.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/OCAP2/animconv/internal/util"
	"github.com/OCAP2/animconv/pkg/core"
)

// FormatVersion is the schema version written at the top of every document.
const FormatVersion = "1.8.0"

// DefaultAnimationName is the key the animation is stored under.
const DefaultAnimationName = "animation"

// Document is the root JSON structure of an .animation.json file.
type Document struct {
	FormatVersion string     `json:"format_version"`
	Animations    Animations `json:"animations"`
}

// Animations holds a single named animation.
// It is a struct rather than a map so the key stays caller-defined without
// giving up deterministic output.
type Animations struct {
	Name      string
	Animation core.OutputAnimation
}

// MarshalJSON writes {"<name>": animation}.
func (a Animations) MarshalJSON() ([]byte, error) {
	name, err := json.Marshal(a.Name)
	if err != nil {
		return nil, err
	}
	anim, err := json.Marshal(a.Animation)
	if err != nil {
		return nil, fmt.Errorf("marshal animation %q: %w", a.Name, err)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	buf.Write(name)
	buf.WriteByte(':')
	buf.Write(anim)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Assemble builds the animation for the expanded bones. Bones without any
// entries are left out.
func Assemble(src core.Source, bones []core.OutputBone) core.OutputAnimation {
	anim := core.OutputAnimation{
		Loop:          core.LoopHoldOnLastFrame,
		LengthSeconds: src.Length / src.Tempo,
		Bones:         make(core.OutputBones, 0, len(bones)),
	}
	for _, b := range bones {
		if b.Empty() {
			continue
		}
		anim.Bones = append(anim.Bones, b)
	}
	return anim
}

// NewDocument wraps an animation under the given name.
func NewDocument(name string, anim core.OutputAnimation) Document {
	if name == "" {
		name = DefaultAnimationName
	}
	return Document{
		FormatVersion: FormatVersion,
		Animations:    Animations{Name: name, Animation: anim},
	}
}

// Encode pretty-prints the document with two-space indentation and rewrites
// any exponent-form numbers as plain decimals.
func Encode(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	data = util.ExpandScientific(data)
	return append(data, '\n'), nil
}
