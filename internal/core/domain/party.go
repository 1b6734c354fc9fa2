package domain

import "fmt"

// PartyFieldKey identifies one column of the party overview.
type PartyFieldKey string

const (
	FieldArmorClass    PartyFieldKey = "ac"
	FieldPerception    PartyFieldKey = "prc"
	FieldInvestigation PartyFieldKey = "inv"
	FieldSpeed         PartyFieldKey = "spd"
	FieldHealth        PartyFieldKey = "hp"
	FieldInspiration   PartyFieldKey = "inspi"
	FieldInitiative    PartyFieldKey = "init"
)

// PartyField reads one stat out of an actor's attribute bag. Missing values
// read as nil and render empty.
type PartyField struct {
	Key   PartyFieldKey
	Label string
	Read  func(attrs map[string]any) any
}

// PartyFields is the ordered field catalog.
var PartyFields = []PartyField{
	{Key: FieldArmorClass, Label: "AC", Read: func(a map[string]any) any { return attrPath(a, "ac", "value") }},
	{Key: FieldPerception, Label: "Passive Perception", Read: func(a map[string]any) any { return attrPath(a, "skills", "prc") }},
	{Key: FieldInvestigation, Label: "Passive Investigation", Read: func(a map[string]any) any { return attrPath(a, "skills", "inv") }},
	{Key: FieldSpeed, Label: "Speed", Read: func(a map[string]any) any { return attrPath(a, "movement", "walk") }},
	{Key: FieldHealth, Label: "HP", Read: readHealth},
	{Key: FieldInspiration, Label: "Inspiration", Read: func(a map[string]any) any { return attrPath(a, "inspiration") }},
	{Key: FieldInitiative, Label: "Initiative", Read: func(a map[string]any) any { return attrPath(a, "init", "total") }},
}

// ValidatePartyKeys drops keys that are not in the catalog, preserving order.
func ValidatePartyKeys(keys []string) []PartyFieldKey {
	known := make(map[PartyFieldKey]struct{}, len(PartyFields))
	for _, f := range PartyFields {
		known[f.Key] = struct{}{}
	}
	out := make([]PartyFieldKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := known[PartyFieldKey(k)]; ok {
			out = append(out, PartyFieldKey(k))
		}
	}
	return out
}

// FindPartyField looks a field up by key.
func FindPartyField(key PartyFieldKey) (PartyField, bool) {
	for _, f := range PartyFields {
		if f.Key == key {
			return f, true
		}
	}
	return PartyField{}, false
}

func readHealth(attrs map[string]any) any {
	val := attrPath(attrs, "hp", "value")
	max := attrPath(attrs, "hp", "max")
	if val == nil || max == nil {
		return nil
	}
	return fmt.Sprintf("%v/%v", val, max)
}

func attrPath(attrs map[string]any, path ...string) any {
	var cur any = attrs
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[p]
		if !ok {
			return nil
		}
	}
	return cur
}
