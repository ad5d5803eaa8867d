package models

// Role is the access level used for visibility decisions.
type Role string

const (
	RoleGuest  Role = "guest"
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Viewer identifies who is reading content. A guest viewer has ID 0.
type Viewer struct {
	ID   uint
	Role Role
}

// Guest is the anonymous viewer.
var Guest = Viewer{Role: RoleGuest}

// Member returns a registered-member viewer for the given user id.
func Member(id uint) Viewer {
	return Viewer{ID: id, Role: RoleMember}
}

// Admin returns an administrator viewer for the given user id.
func Admin(id uint) Viewer {
	return Viewer{ID: id, Role: RoleAdmin}
}
