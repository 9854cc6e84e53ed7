package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/souq/app/services"
	"github.com/shashiranjanraj/souq/pkg/auth"
	"github.com/shashiranjanraj/souq/pkg/ctx"
)

type AuthController struct {
	service *services.AuthService
	tokens  *auth.Issuer
}

func NewAuthController(service *services.AuthService, tokens *auth.Issuer) *AuthController {
	return &AuthController{service: service, tokens: tokens}
}

func (h *AuthController) Register(c *ctx.Context) {
	var req registerRequest
	if !c.BindJSON(&req) {
		return
	}
	u, err := h.service.Register(c.Context(), services.RegisterInput(req))
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusCreated, ctx.Envelope{
		Status:  http.StatusCreated,
		Message: services.MsgRegistrationSuccess,
		Data:    u,
	})
}

func (h *AuthController) Login(c *ctx.Context) {
	var req loginRequest
	if !c.BindJSON(&req) {
		return
	}
	token, u, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]any{
		"token":      token,
		"token_type": "Bearer",
		"expires_in": int(h.tokens.TTL().Seconds()),
		"user":       u,
	})
}

func (h *AuthController) VerifyEmail(c *ctx.Context) {
	var req tokenRequest
	if !c.BindJSON(&req) {
		return
	}
	if err := h.service.VerifyEmail(c.Context(), req.Token); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Email verified successfully")
}

func (h *AuthController) ResendVerification(c *ctx.Context) {
	var req emailRequest
	if !c.BindJSON(&req) {
		return
	}
	if err := h.service.ResendVerification(c.Context(), req.Email); err != nil {
		c.Fail(err)
		return
	}
	c.Message(services.MsgVerificationResent)
}

func (h *AuthController) ForgotPassword(c *ctx.Context) {
	var req emailRequest
	if !c.BindJSON(&req) {
		return
	}
	if err := h.service.ForgotPassword(c.Context(), req.Email); err != nil {
		c.Fail(err)
		return
	}
	c.Message(services.MsgResetLinkSent)
}

func (h *AuthController) ResetPassword(c *ctx.Context) {
	var req resetPasswordRequest
	if !c.BindJSON(&req) {
		return
	}
	if err := h.service.ResetPassword(c.Context(), req.Token, req.Password); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Password has been reset")
}

func (h *AuthController) Me(c *ctx.Context) {
	u, err := h.service.Me(c.Context(), c.UserID())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(u)
}

func (h *AuthController) UpdateProfile(c *ctx.Context) {
	var req profileRequest
	if !c.BindJSON(&req) {
		return
	}
	u, err := h.service.UpdateProfile(c.Context(), c.UserID(), req.Name, req.Phone)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(u)
}

func (h *AuthController) ChangePassword(c *ctx.Context) {
	var req changePasswordRequest
	if !c.BindJSON(&req) {
		return
	}
	if err := h.service.ChangePassword(c.Context(), c.UserID(), req.CurrentPassword, req.NewPassword); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Password changed")
}
