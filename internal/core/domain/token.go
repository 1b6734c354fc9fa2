package domain

import "encoding/json"

// SightState is a token's full vision configuration.
type SightState struct {
	Enabled    bool    `json:"enabled"`
	Range      float64 `json:"range"`
	Angle      float64 `json:"angle"`
	VisionMode string  `json:"visionMode"`
}

// LightAnimation describes an emitted-light animation.
type LightAnimation struct {
	Type      string  `json:"type"`
	Speed     int     `json:"speed"`
	Intensity int     `json:"intensity"`
	Reverse   bool    `json:"reverse,omitempty"`
}

// LightState is a token's full light emission configuration.
type LightState struct {
	Dim       float64        `json:"dim"`
	Bright    float64        `json:"bright"`
	Color     string         `json:"color,omitempty"`
	Alpha     float64        `json:"alpha"`
	Angle     float64        `json:"angle"`
	Animation LightAnimation `json:"animation"`
}

// Token is a placed scene document. Module-scoped data (preset snapshots)
// lives in a flag bag handled by the repository, like actors.
type Token struct {
	TokenID        string          `json:"tokenId"`
	SceneID        string          `json:"sceneId"`
	WorldID        string          `json:"worldId"`
	ActorID        string          `json:"actorId,omitempty"`
	GridX          int             `json:"gridX"`
	GridY          int             `json:"gridY"`
	Width          int             `json:"width"`
	Height         int             `json:"height"`
	Hidden         bool            `json:"hidden"`
	Sight          SightState      `json:"sight"`
	Light          LightState      `json:"light"`
	DetectionModes json.RawMessage `json:"detectionModes,omitempty"`
	AuditFields
}

// Footprint returns the grid extent of the token, defaulting to 1x1.
func (t *Token) Footprint() (w, h int) {
	w, h = t.Width, t.Height
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// Scene holds grid metadata for placed tokens.
type Scene struct {
	SceneID      string  `json:"sceneId"`
	WorldID      string  `json:"worldId"`
	Name         string  `json:"name"`
	GridDistance float64 `json:"gridDistance"`
	GridUnits    string  `json:"gridUnits"`
	AuditFields
}
