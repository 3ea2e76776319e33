package domain

// Session is the authentication state of the process.
// A nil User with Authenticated set means a stored token has not
// been validated yet.
type Session struct {
	Authenticated bool
	User          *AuthenticatedUser
}

// Login returns the signed-in login, or "" when unknown.
func (s Session) Login() string {
	if s.User == nil {
		return ""
	}
	return s.User.Login
}
