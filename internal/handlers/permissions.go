package handlers

import "github.com/HammerMeetNail/friendgraph/internal/models"

// canModifyUser reports whether actor may change or delete target's account:
// only the account owner or an admin may.
func canModifyUser(actor, target *models.User) bool {
	if actor == nil || target == nil {
		return false
	}
	return actor.IsAdmin || actor.ID == target.ID
}
