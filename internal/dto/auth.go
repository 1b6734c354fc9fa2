package dto

// JoinRequest defines the credentials needed to join a world session.
type JoinRequest struct {
	WorldID string `json:"worldId" binding:"required"`
	UserID  string `json:"userId" binding:"required"`
	Secret  string `json:"secret" binding:"required"`
}

// AuthResponse defines the data returned after a successful join.
type AuthResponse struct {
	Token   string `json:"token"`
	UserID  string `json:"userId"`
	WorldID string `json:"worldId"`
	Name    string `json:"name"`
	IsGM    bool   `json:"isGM"`
}
