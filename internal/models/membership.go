package models

import (
	"time"
)

const (
	RoleLeader        = "CL"
	RoleVicePresident = "VP"
	RoleMember        = "member"
)

type Membership struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:64;not null;uniqueIndex:idx_membership_user_club" json:"username"`
	ClubName  string    `gorm:"size:100;not null;uniqueIndex:idx_membership_user_club;index" json:"club_name"`
	Role      string    `gorm:"size:20;default:'member';not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// CanBroadcast reports whether the role may address the whole club.
func (m Membership) CanBroadcast() bool {
	return m.Role == RoleLeader || m.Role == RoleVicePresident
}
