package domain

// User is a world member able to join sessions and own actors.
type User struct {
	UserID         string `json:"userId"`
	WorldID        string `json:"worldId"`
	Name           string `json:"name"`
	IsGM           bool   `json:"isGM"`
	JoinSecretHash string `json:"-"`
	AuditFields
}
