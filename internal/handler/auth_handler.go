package handler

import (
	"net/http"

	"battle-pollster/internal/services"
	"battle-pollster/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves the sign-in, sign-up and logout endpoints.
type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// SignInView reports the current session; signed-in users are pointed to the dashboard.
func (h *AuthHandler) SignInView(c *gin.Context) {
	h.sessionView(c)
}

func (h *AuthHandler) SignUpView(c *gin.Context) {
	h.sessionView(c)
}

func (h *AuthHandler) sessionView(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	sess, err := ws.Sessions.Current(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
	}
	res := httpdto.NewSuccessResponse(httpdto.SessionDTO{Authenticated: sess.Authenticated, Username: sess.Username})
	if sess.Authenticated {
		res.Redirect = "/"
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	var req httpdto.SignInRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	err := ws.Accounts.SignIn(c.Request.Context(), services.SignInInput{Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.RedirectDTO{Redirect: "/"}))
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	var req httpdto.SignUpRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	err := ws.Accounts.SignUp(c.Request.Context(), services.SignUpInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.RedirectDTO{Redirect: "/"}))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	if err := ws.Accounts.Logout(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.RedirectDTO{Redirect: signInPath}))
}
