package models

import "strings"

// Capabilities is what the caller of a request may do. It is resolved once
// per request from the token and passed explicitly to every write.
type Capabilities struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	CanEdit   bool   `json:"can_edit"`
	CanDelete bool   `json:"can_delete"`
	CanImport bool   `json:"can_import"`
}

// CapabilitiesFor maps a role to its capabilities. Unknown roles are read-only.
func CapabilitiesFor(userID, role string) Capabilities {
	role = strings.ToLower(strings.TrimSpace(role))
	c := Capabilities{UserID: userID, Role: role}
	switch role {
	case "owner", "admin":
		c.CanEdit, c.CanDelete, c.CanImport = true, true, true
	case "editor":
		c.CanEdit = true
	}
	return c
}
