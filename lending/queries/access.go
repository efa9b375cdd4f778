package queries

import (
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
)

// ScopeToViewer returns the user the viewer may query. Admins may query any user or, with an
// empty requestedUserID, everyone. Patrons only see their own books and Transactions.
func ScopeToViewer(viewer core.User, requestedUserID core.UserIDString) (core.UserIDString, error) {
	if viewer.IsAdmin() {
		return requestedUserID, nil
	}

	if requestedUserID != "" && requestedUserID != viewer.ID {
		return "", core.ErrForbidden
	}

	return viewer.ID, nil
}
