package parser

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/OCAP2/animconv/pkg/core"
)

// Source field names.
const (
	fieldTempo      = "tempo"
	fieldLength     = "length"
	fieldKeyframes  = "keyframes"
	fieldPosition   = "position"
	fieldPartName   = "part_name"
	fieldValues     = "values"
	fieldTransition = "TRANSITION"
)

// axisFields lists the per-axis value names of each channel in x, y, z order.
var axisFields = core.ChannelSet[[3]string]{
	Position: [3]string{"POS_X", "POS_Y", "POS_Z"},
	Rotation: [3]string{"ROT_X", "ROT_Y", "ROT_Z"},
	Scale:    [3]string{"SCA_X", "SCA_Y", "SCA_Z"},
}

// axisDefaults is the value used when an axis field is absent or not a number.
var axisDefaults = core.ChannelSet[float64]{Position: 0, Rotation: 0, Scale: 1}

// parseFrame converts a numeric frame position into a non-negative integer frame.
// The authoring tool writes integral frames, but JSON carries them as numbers.
func parseFrame(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("parseFrame: %v is not finite", v)
	}
	if v < 0 {
		return 0, fmt.Errorf("parseFrame: %v is negative", v)
	}
	if v != math.Trunc(v) || v > math.MaxInt64/2 {
		return 0, fmt.Errorf("parseFrame: %v is not a valid frame index", v)
	}
	return int64(v), nil
}

// RemapAxes converts authored axis values into the target coordinate convention:
// position (x, z, -y), rotation (x, -z, -y), scale (x, z, y).
func RemapAxes(raw core.ChannelSet[[3]float64]) core.ChannelSet[core.Vec3] {
	p, r, s := raw.Position, raw.Rotation, raw.Scale
	return core.ChannelSet[core.Vec3]{
		Position: core.V3(p[0], p[2], -p[1]),
		Rotation: core.V3(r[0], -r[2], -r[1]),
		Scale:    core.V3(s[0], s[2], s[1]),
	}
}

// Parser turns a keyframe document into typed keyframe events.
// It has no dependencies beyond a logger.
type Parser struct {
	logger      *slog.Logger
	defaultBone string
}

// NewParser creates a parser. defaultBone names events that carry no part_name.
func NewParser(logger *slog.Logger, defaultBone string) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		logger:      logger,
		defaultBone: defaultBone,
	}
}

// DefaultBone returns the bone name used for records without a part_name.
func (p *Parser) DefaultBone() string {
	return p.defaultBone
}

// Parse decodes raw JSON and extracts its keyframe events.
func (p *Parser) Parse(data []byte) (core.Source, []error, error) {
	root, err := ParseTree(data)
	if err != nil {
		return core.Source{}, nil, err
	}
	return p.ParseDocument(root)
}

// ParseDocument extracts the tempo, length and keyframe events of a document.
// Malformed keyframes are skipped and returned as warnings; a missing tempo or
// length aborts the whole document.
func (p *Parser) ParseDocument(root Node) (core.Source, []error, error) {
	var src core.Source

	tempo, ok := root.Number(fieldTempo)
	if !ok || !(tempo > 0) || math.IsInf(tempo, 0) {
		return src, nil, fmt.Errorf("%w: '%s' not found or is not a positive number", ErrMissingField, fieldTempo)
	}
	length, ok := root.Number(fieldLength)
	if !ok {
		return src, nil, fmt.Errorf("%w: '%s' not found or is not a number", ErrMissingField, fieldLength)
	}
	src.Tempo = tempo
	src.Length = length

	records, ok := root.Array(fieldKeyframes)
	if !ok {
		p.logger.Debug("Document has no keyframes array")
		return src, nil, nil
	}

	var warnings []error
	src.Events = make([]core.KeyframeEvent, 0, len(records))
	for i, record := range records {
		event, err := p.parseKeyframe(i, record)
		if err != nil {
			p.logger.Warn("Skipping keyframe", "error", err)
			warnings = append(warnings, err)
			continue
		}
		src.Events = append(src.Events, event)
	}

	p.logger.Debug("Parsed keyframe document",
		"tempo", src.Tempo,
		"length", src.Length,
		"events", len(src.Events),
		"skipped", len(warnings))

	return src, warnings, nil
}

func (p *Parser) parseKeyframe(index int, record Node) (core.KeyframeEvent, error) {
	var event core.KeyframeEvent

	if !IsObject(record) {
		return event, &KeyframeError{Index: index, Reason: "record is not an object"}
	}

	position, ok := record.Number(fieldPosition)
	if !ok {
		return event, &KeyframeError{Index: index, Reason: "'position' not found or is not a number"}
	}
	frame, err := parseFrame(position)
	if err != nil {
		return event, &KeyframeError{Index: index, Reason: err.Error()}
	}
	event.Frame = frame

	event.Bone = p.defaultBone
	if name, ok := record.String(fieldPartName); ok && name != "" {
		event.Bone = name
	}
	if event.Bone == "" {
		return event, &KeyframeError{Index: index, Reason: "could not determine bone name"}
	}

	var raw core.ChannelSet[[3]float64]
	values, hasValues := record.Object(fieldValues)
	for _, c := range core.Channels {
		var axes [3]float64
		for i, name := range axisFields.Get(c) {
			axes[i] = axisDefaults.Get(c)
			if !hasValues {
				continue
			}
			if v, ok := values.Number(name); ok {
				axes[i] = v
			}
		}
		raw.Set(c, axes)
	}
	event.Values = RemapAxes(raw)

	if hasValues {
		if tag, ok := values.String(fieldTransition); ok {
			event.Transition = strings.ToLower(strings.TrimSpace(tag))
		}
	}

	return event, nil
}
