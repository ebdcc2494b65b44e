package models

import "time"

// Organization roles stored on the user profile.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User is the profile document kept alongside the Firebase Auth account.
type User struct {
	ID          string `json:"id" firestore:"-"` // Firebase Auth UID, will be the document ID
	Email       string `json:"email" firestore:"email"`
	DisplayName string `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	// Organizations maps organization ID to the user's role in it.
	Organizations map[string]string `json:"organizations" firestore:"organizations"`
	CreatedAt     time.Time         `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}

// RoleIn returns the user's role in orgID and whether the user belongs to it.
func (u *User) RoleIn(orgID string) (string, bool) {
	if u == nil || u.Organizations == nil {
		return "", false
	}
	role, ok := u.Organizations[orgID]
	return role, ok
}
