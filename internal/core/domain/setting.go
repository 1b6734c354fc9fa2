package domain

// SettingScope says whether a setting is shared by the world or per user.
type SettingScope string

const (
	ScopeWorld  SettingScope = "world"
	ScopeClient SettingScope = "client"
)

// SettingKind is the value type a setting accepts.
type SettingKind string

const (
	KindBool   SettingKind = "bool"
	KindNumber SettingKind = "number"
	KindString SettingKind = "string"
)

// SettingSpec declares one registered setting key. Unregistered keys are
// rejected on write; reads of unset or malformed values fall back to Default.
type SettingSpec struct {
	Key     string       `json:"key"`
	Scope   SettingScope `json:"scope"`
	Kind    SettingKind  `json:"kind"`
	Default any          `json:"default"`
	Choices []string     `json:"choices,omitempty"`
}

// Setting keys. The currency and distance groups come from the feature
// schemas; the dock group backs the side panel state.
const (
	SettingCurrencyEnabled     = "currency.enabled"
	SettingCurrencyDefinitions = "currency.definitions"
	SettingCurrencyPlayerEdit  = "currency.permissions.playerEditSelf"
	SettingCurrencySync        = "currency.syncToSystem"

	SettingDistanceStepSource   = "distance.stepSource"
	SettingDistanceStepFraction = "distance.stepFraction"
	SettingDistanceCustomStep   = "distance.customStep"
	SettingDistanceRoundMode    = "distance.roundMode"
	SettingDistanceVisibleTo    = "distance.visibleTo"
	SettingDistanceRequireLOS   = "distance.requireLOS"

	SettingDockOpen   = "dock.open"
	SettingDockTool   = "dock.tool"
	SettingDockFields = "dock.fields"
)

// SettingsRegistry lists every known setting.
var SettingsRegistry = []SettingSpec{
	{Key: SettingCurrencyEnabled, Scope: ScopeWorld, Kind: KindBool, Default: false},
	{Key: SettingCurrencyDefinitions, Scope: ScopeWorld, Kind: KindString, Default: "[]"},
	{Key: SettingCurrencyPlayerEdit, Scope: ScopeWorld, Kind: KindBool, Default: false},
	{Key: SettingCurrencySync, Scope: ScopeWorld, Kind: KindString, Default: "none",
		Choices: []string{"none", "referenceToGP"}},

	{Key: SettingDistanceStepSource, Scope: ScopeWorld, Kind: KindString, Default: "cell",
		Choices: []string{"none", "cell", "custom"}},
	{Key: SettingDistanceStepFraction, Scope: ScopeWorld, Kind: KindNumber, Default: 1.0},
	{Key: SettingDistanceCustomStep, Scope: ScopeWorld, Kind: KindNumber, Default: 0.0},
	{Key: SettingDistanceRoundMode, Scope: ScopeWorld, Kind: KindString, Default: "nearest",
		Choices: []string{"nearest", "floor", "ceil"}},
	{Key: SettingDistanceVisibleTo, Scope: ScopeWorld, Kind: KindString, Default: "gmOwners",
		Choices: []string{"gm", "gmOwners", "everyone"}},
	{Key: SettingDistanceRequireLOS, Scope: ScopeWorld, Kind: KindBool, Default: false},

	{Key: SettingDockOpen, Scope: ScopeClient, Kind: KindBool, Default: false},
	{Key: SettingDockTool, Scope: ScopeClient, Kind: KindString, Default: "party"},
	{Key: SettingDockFields, Scope: ScopeWorld, Kind: KindString, Default: `["ac","prc","hp"]`},
}

// FindSettingSpec looks a spec up by key.
func FindSettingSpec(key string) (SettingSpec, bool) {
	for _, spec := range SettingsRegistry {
		if spec.Key == key {
			return spec, true
		}
	}
	return SettingSpec{}, false
}
