package session

// Session is the identity the backend reports for the current cookie jar.
type Session struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	CSRFToken     string `json:"csrf_token,omitempty"`
}

// Anonymous is the zero session.
var Anonymous = Session{}

// CanMutate reports whether mutating calls can be attempted with this session.
func (s Session) CanMutate() bool {
	return s.Authenticated && s.CSRFToken != ""
}
