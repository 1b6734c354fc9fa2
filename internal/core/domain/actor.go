package domain

// OwnershipLevel mirrors the document permission ladder of the tabletop host.
type OwnershipLevel int

const (
	OwnershipNone     OwnershipLevel = 0
	OwnershipLimited  OwnershipLevel = 1
	OwnershipObserver OwnershipLevel = 2
	OwnershipOwner    OwnershipLevel = 3
)

// ActorKind distinguishes player characters from everything else in a world.
type ActorKind string

const (
	ActorKindCharacter ActorKind = "character"
	ActorKindNPC       ActorKind = "npc"
)

// Actor is a world document that can hold a currency ledger and be owned by
// users. Arbitrary sheet data lives in Attributes; module-scoped data (the
// ledger, snapshots) lives in a separate flag bag handled by the repository.
type Actor struct {
	ActorID    string                    `json:"actorId"`
	WorldID    string                    `json:"worldId"`
	Name       string                    `json:"name"`
	Kind       ActorKind                 `json:"kind"`
	Ownership  map[string]OwnershipLevel `json:"ownership"`
	Attributes map[string]any            `json:"attributes"`
	AuditFields
}

// OwnedBy reports whether the given user holds owner-level permission.
func (a *Actor) OwnedBy(userID string) bool {
	if a == nil {
		return false
	}
	return a.Ownership[userID] >= OwnershipOwner
}
