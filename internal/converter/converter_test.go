package converter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/OCAP2/animconv/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

const workedExample = `{
	"tempo": 20,
	"length": 40,
	"keyframes": [
		{"position": 0, "values": {"POS_X": 0}},
		{"position": 10, "values": {"POS_X": 10, "TRANSITION": "easeinquad"}},
		{"position": 20, "values": {"POS_X": 20}}
	]
}`

func newTestConverter(t *testing.T, cfg Config) *Converter {
	t.Helper()
	if cfg.DefaultBone == "" {
		cfg.DefaultBone = "root"
	}
	c, err := New(cfg, nil, slog.Default(), noop.Meter{})
	require.NoError(t, err)
	return c
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(Config{DefaultBone: "root"}, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, c.Config().Steps)
	assert.Equal(t, "animation", c.Config().AnimationName)
}

func TestConvert_WorkedExample(t *testing.T) {
	c := newTestConverter(t, Config{})
	res, err := c.Convert(context.Background(), Input{
		Path:     filepath.Join("in", "walk.miframes"),
		Contents: []byte(workedExample),
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("in", "walk.animation.json"), res.OutputPath)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 1, res.Stats.Bones)
	assert.Equal(t, 3, res.Stats.Keyframes)
	// position, rotation and scale each get nine samples
	assert.Equal(t, 27, res.Stats.SynthesizedFrames)
	assert.False(t, util.ContainsScientific(res.Document))

	var doc struct {
		FormatVersion string `json:"format_version"`
		Animations    map[string]struct {
			Loop   string  `json:"loop"`
			Length float64 `json:"animation_length"`
			Bones  map[string]map[string]map[string]json.RawMessage
		} `json:"animations"`
	}
	require.NoError(t, json.Unmarshal(res.Document, &doc))
	assert.Equal(t, "1.8.0", doc.FormatVersion)

	anim, ok := doc.Animations["animation"]
	require.True(t, ok)
	assert.Equal(t, "hold_on_last_frame", anim.Loop)
	assert.Equal(t, 2.0, anim.Length)

	pos := anim.Bones["root"]["position"]
	require.Len(t, pos, 12)
	assert.JSONEq(t, `[0, 0, 0]`, string(pos["0"]))
	assert.JSONEq(t, `[10, 0, 0]`, string(pos["0.5"]))
	assert.JSONEq(t, `[20, 0, 0]`, string(pos["1"]))

	synthesized := 0
	for key, raw := range pos {
		var lerp struct {
			Pre      []float64 `json:"pre"`
			Post     []float64 `json:"post"`
			LerpMode string    `json:"lerp_mode"`
		}
		if json.Unmarshal(raw, &lerp) != nil {
			continue
		}
		synthesized++
		assert.Equal(t, "bezier", lerp.LerpMode, key)
		assert.Len(t, lerp.Pre, 3)
		assert.Len(t, lerp.Post, 3)
	}
	assert.Equal(t, 9, synthesized)
}

func TestConvert_Idempotent(t *testing.T) {
	c := newTestConverter(t, Config{})
	in := Input{Path: "a.miframes", Contents: []byte(workedExample)}

	first, err := c.Convert(context.Background(), in)
	require.NoError(t, err)
	second, err := c.Convert(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, first.Document, second.Document)
}

func TestConvert_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"invalid json", `{"tempo": 20,`, ErrParseFailure},
		{"missing tempo", `{"length": 20}`, ErrMissingField},
		{"missing length", `{"tempo": 20}`, ErrMissingField},
	}

	c := newTestConverter(t, Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.Convert(context.Background(), Input{Path: "bad.miframes", Contents: []byte(tt.input)})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
			assert.Contains(t, err.Error(), "bad")
			assert.Nil(t, res.Document)
		})
	}
}

func TestConvert_WarningsCollected(t *testing.T) {
	input := `{"tempo": 10, "length": 10, "keyframes": [
		{"position": 1.5, "part_name": "a"},
		{"position": 0, "part_name": "a"}
	]}`

	c := newTestConverter(t, Config{})
	res, err := c.Convert(context.Background(), Input{Path: "w.miframes", Contents: []byte(input)})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.True(t, errors.Is(res.Warnings[0], ErrMalformedKeyframe))
	assert.Equal(t, 1, res.Stats.SkippedKeyframes)
	assert.Equal(t, 1, res.Stats.Keyframes)
}

func TestConvert_OutputDirAndName(t *testing.T) {
	c := newTestConverter(t, Config{OutputDir: "out", AnimationName: "walk", Steps: 2})
	res, err := c.Convert(context.Background(), Input{Path: filepath.Join("src", "x.json"), Contents: []byte(workedExample)})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "x.animation.json"), res.OutputPath)
	assert.Contains(t, string(res.Document), `"walk": {`)
	// one sample per curved channel with two steps
	assert.Equal(t, 3, res.Stats.SynthesizedFrames)
}
