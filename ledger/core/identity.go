package core

// IsUserRegistered reports whether history contains the registration of userID.
func IsUserRegistered(history DomainEvents, userID UserIDString) bool {
	for _, event := range history {
		if e, ok := event.(UserRegistered); ok && e.UserID == userID {
			return true
		}
	}

	return false
}
