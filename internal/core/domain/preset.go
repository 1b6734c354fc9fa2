package domain

import "encoding/json"

// PresetType says which slots of a token a preset touches.
type PresetType string

const (
	PresetSight PresetType = "sight"
	PresetLight PresetType = "light"
	PresetBoth  PresetType = "both"
)

// SightPatch is a partial update of a token's sight state. Nil fields are
// left untouched.
type SightPatch struct {
	Enabled    *bool    `json:"enabled,omitempty"`
	Range      *float64 `json:"range,omitempty"`
	Angle      *float64 `json:"angle,omitempty"`
	VisionMode *string  `json:"visionMode,omitempty"`
}

// Apply merges the patch into a sight state.
func (p *SightPatch) Apply(s *SightState) {
	if p == nil {
		return
	}
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.Range != nil {
		s.Range = *p.Range
	}
	if p.Angle != nil {
		s.Angle = *p.Angle
	}
	if p.VisionMode != nil {
		s.VisionMode = *p.VisionMode
	}
}

// LightPatch is a partial update of a token's light state.
type LightPatch struct {
	Dim       *float64        `json:"dim,omitempty"`
	Bright    *float64        `json:"bright,omitempty"`
	Color     *string         `json:"color,omitempty"`
	Alpha     *float64        `json:"alpha,omitempty"`
	Angle     *float64        `json:"angle,omitempty"`
	Animation *LightAnimation `json:"animation,omitempty"`
}

// Apply merges the patch into a light state.
func (p *LightPatch) Apply(l *LightState) {
	if p == nil {
		return
	}
	if p.Dim != nil {
		l.Dim = *p.Dim
	}
	if p.Bright != nil {
		l.Bright = *p.Bright
	}
	if p.Color != nil {
		l.Color = *p.Color
	}
	if p.Alpha != nil {
		l.Alpha = *p.Alpha
	}
	if p.Angle != nil {
		l.Angle = *p.Angle
	}
	if p.Animation != nil {
		l.Animation = *p.Animation
	}
}

// Preset is a named sight/light configuration applicable to tokens.
type Preset struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	Type  PresetType  `json:"type"`
	Sight *SightPatch `json:"sight,omitempty"`
	Light *LightPatch `json:"light,omitempty"`
}

// TokenSnapshot remembers the pre-preset state of the touched slots so a
// preset can be reverted. Stored in the token flag bag.
type TokenSnapshot struct {
	Sight          *SightState     `json:"sight,omitempty"`
	Light          *LightState     `json:"light,omitempty"`
	DetectionModes json.RawMessage `json:"detectionModes,omitempty"`
}

func ptr[T any](v T) *T { return &v }

// BuiltinPresets is the stock preset catalog.
var BuiltinPresets = []Preset{
	{
		ID:    "sight:darkvision-18",
		Label: "Darkvision (18)",
		Type:  PresetSight,
		Sight: &SightPatch{
			VisionMode: ptr("darkvision"),
			Range:      ptr(18.0),
			Angle:      ptr(360.0),
		},
	},
	{
		ID:    "sight:blindness",
		Label: "Blindness",
		Type:  PresetSight,
		Sight: &SightPatch{
			VisionMode: ptr("basic"),
			Range:      ptr(0.0),
		},
	},
	{
		ID:    "light:torch-6-12",
		Label: "Torch (6/12)",
		Type:  PresetLight,
		Light: &LightPatch{
			Dim:    ptr(12.0),
			Bright: ptr(6.0),
			Color:  ptr("#ff9b48"),
			Alpha:  ptr(0.25),
			Animation: &LightAnimation{
				Type:      "torch",
				Speed:     2,
				Intensity: 5,
			},
		},
	},
}

// FindPreset looks a preset up by id.
func FindPreset(id string) (Preset, bool) {
	for _, p := range BuiltinPresets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}
