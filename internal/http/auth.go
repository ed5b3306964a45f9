package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/cliffauth/internal/auth"
	"github.com/mrlokans/cliffauth/internal/entities"
)

// AuthController serves the account endpoints under /api/auth.
type AuthController struct {
	service *auth.Service
}

func NewAuthController(service *auth.Service) *AuthController {
	return &AuthController{service: service}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// authData is the payload of signup and login responses.
type authData struct {
	User  entities.PublicUser `json:"user"`
	Token string              `json:"token"`
}

type userData struct {
	User entities.PublicUser `json:"user"`
}

// Signup registers a new account
// POST /api/auth/signup
func (ac *AuthController) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	result, err := ac.service.Signup(c.Request.Context(), auth.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}, auth.RequestMetaFrom(c))
	if err != nil {
		respondAuthError(c, err, "signup")
		return
	}

	respondCreated(c, "User registered successfully", authData{User: result.User.Public(), Token: result.Token})
}

// Login exchanges credentials for a bearer token
// POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, auth.ErrInvalidCredentials.Error())
		return
	}

	result, err := ac.service.Login(c.Request.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, auth.RequestMetaFrom(c))
	if err != nil {
		respondAuthError(c, err, "login")
		return
	}

	respondSuccess(c, "Login successful", authData{User: result.User.Public(), Token: result.Token})
}

// Logout revokes the presented bearer token. It is not behind RequireAuth
// so that an already revoked or expired token can still be discarded.
// POST /api/auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	token := auth.BearerToken(c)
	if token == "" {
		auth.AbortUnauthenticated(c)
		return
	}

	if err := ac.service.Logout(c.Request.Context(), token, auth.RequestMetaFrom(c)); err != nil {
		respondAuthError(c, err, "logout")
		return
	}

	respondSuccess(c, "Logout successful", nil)
}

// LogoutAll ends every session of the current user
// POST /api/auth/logout-all
func (ac *AuthController) LogoutAll(c *gin.Context) {
	if err := ac.service.LogoutAll(c.Request.Context(), auth.GetUser(c), auth.GetToken(c), auth.RequestMetaFrom(c)); err != nil {
		respondAuthError(c, err, "logout all")
		return
	}

	respondSuccess(c, "All sessions have been logged out", nil)
}

// Profile returns the current user
// GET /api/auth/profile
func (ac *AuthController) Profile(c *gin.Context) {
	user := auth.GetUser(c)
	if user == nil {
		auth.AbortUnauthenticated(c)
		return
	}

	respondSuccess(c, "User profile fetched successfully", userData{User: user.Public()})
}

// ForgotPassword mails a reset link. The answer is the same whether or not
// the email is registered.
// POST /api/auth/forgot-password
func (ac *AuthController) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, auth.ErrEmailRequired.Error())
		return
	}

	if _, err := ac.service.ForgotPassword(c.Request.Context(), req.Email, auth.RequestMetaFrom(c)); err != nil {
		respondAuthError(c, err, "forgot password")
		return
	}

	respondSuccess(c, "If that email is registered, a password reset link has been sent", nil)
}

// ResetPassword sets a new password using a reset token
// PATCH /api/auth/reset-password/:token
func (ac *AuthController) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, auth.ErrPasswordRequired.Error())
		return
	}

	if _, err := ac.service.ResetPassword(c.Request.Context(), c.Param("token"), req.Password, auth.RequestMetaFrom(c)); err != nil {
		respondAuthError(c, err, "reset password")
		return
	}

	respondSuccess(c, "Password has been reset successfully", nil)
}
