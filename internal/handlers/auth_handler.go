package handlers

import (
	"net/http"

	"finlearn/internal/security"
	"finlearn/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService          *service.AuthService
	oauthProviders       map[string]OAuthProvider
	stateSigner          *security.StateSigner
	oauthRedirectBaseURL string
	appBaseURL           string
	*Responder
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, oauthProviders map[string]OAuthProvider, stateSigner *security.StateSigner, oauthRedirectBaseURL, appBaseURL string, responder *Responder) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		oauthProviders:       oauthProviders,
		stateSigner:          stateSigner,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
		appBaseURL:           appBaseURL,
		Responder:            responder,
	}
}

// Signup creates an unverified local account
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	user, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, map[string]interface{}{
		"user":    user,
		"message": "Account created. Check your email to verify your address.",
	})
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signin checks credentials and sets the token cookies
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	session, err := h.authService.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.setSessionCookies(w, r, session)
	h.JSON(w, http.StatusOK, session)
}

func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, r *http.Request, session *service.Session) {
	http.SetCookie(w, security.CreateTokenCookie(r, security.AccessTokenCookie, session.AccessToken, session.AccessExpiresAt))
	http.SetCookie(w, security.CreateTokenCookie(r, security.RefreshTokenCookie, session.RefreshToken, session.RefreshExpiresAt))
}

// Signout clears the token cookies
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, security.CreateDeleteCookie(r, security.AccessTokenCookie))
	http.SetCookie(w, security.CreateDeleteCookie(r, security.RefreshTokenCookie))
	h.Message(w, http.StatusOK, "Signed out")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken issues a new token pair from the refresh token in the body or cookie
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			h.Error(w, r, err)
			return
		}
	}
	if req.RefreshToken == "" {
		if cookie, err := r.Cookie(security.RefreshTokenCookie); err == nil {
			req.RefreshToken = cookie.Value
		}
	}
	session, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.setSessionCookies(w, r, session)
	h.JSON(w, http.StatusOK, session)
}

// VerifyEmail consumes the emailed verification token
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.VerifyEmail(r.Context(), r.PathValue("token")); err != nil {
		h.Error(w, r, err)
		return
	}
	h.Message(w, http.StatusOK, "Email verified. You can now sign in.")
}

type emailRequest struct {
	Email string `json:"email"`
}

// ResendVerification mails a new verification link
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	if err := h.authService.ResendVerification(r.Context(), req.Email); err != nil {
		h.Error(w, r, err)
		return
	}
	h.Message(w, http.StatusOK, "If the account exists and is unverified, a new link has been sent.")
}

// RequestPasswordReset always answers 200 so callers cannot probe accounts
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.log.Error("password reset request failed", "error", err)
	}
	h.Message(w, http.StatusOK, "If an account exists for that email, a reset link has been sent.")
}

// ValidateResetToken reports whether a reset link is still usable
func (h *AuthHandler) ValidateResetToken(w http.ResponseWriter, r *http.Request) {
	valid, err := h.authService.ValidateResetToken(r.Context(), r.PathValue("token"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

type resetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ResetPassword sets a new password from a reset link
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	if err := h.authService.ResetPassword(r.Context(), r.PathValue("token"), req.Password, req.ConfirmPassword); err != nil {
		h.Error(w, r, err)
		return
	}
	h.Message(w, http.StatusOK, "Password updated. You can now sign in.")
}

// Providers lists the OAuth providers that are configured
func (h *AuthHandler) Providers(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, h.oauthProviderViews())
}
