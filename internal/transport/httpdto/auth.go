package httpdto

// SignInRequest is used for POST /signin (JSON or form encoded)
type SignInRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// SignUpRequest is used for POST /signup
type SignUpRequest struct {
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

type SessionDTO struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

// RedirectDTO tells the browser app where to navigate next.
type RedirectDTO struct {
	Redirect string `json:"redirect"`
}
