package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"finlearn/internal/security"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthProviderCookie = "oauth_provider"
	oauthCookieTTL      = 10 * time.Minute
)

// OAuthProvider defines provider configuration and metadata
type OAuthProvider struct {
	Name        string
	Label       string
	Config      *oauth2.Config
	UserInfoURL string
	// EmailsURL lists the account's addresses when the profile hides them
	EmailsURL string
}

func (p OAuthProvider) configured() bool {
	return p.Config != nil && p.Config.ClientID != "" && p.Config.ClientSecret != ""
}

// OAuthProviderView is the public description of a sign-in option
type OAuthProviderView struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

type oauthUserInfo struct {
	Subject string
	Email   string
	Name    string
}

func (h *AuthHandler) oauthProviderViews() []OAuthProviderView {
	views := []OAuthProviderView{}
	for key, provider := range h.oauthProviders {
		if !provider.configured() {
			continue
		}
		views = append(views, OAuthProviderView{
			Name:  key,
			Label: provider.Label,
			URL:   fmt.Sprintf("/api/v1/auth/%s/start", key),
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views
}

// StartOAuth initiates the OAuth flow for a provider
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok || !provider.configured() {
		respondWithError(w, h.log, http.StatusBadRequest, "OAuth provider not configured", "", nil)
		return
	}

	state := h.stateSigner.NewState()
	h.setTempCookie(w, r, oauthStateCookie, state, oauthCookieTTL)
	h.setTempCookie(w, r, oauthProviderCookie, providerKey, oauthCookieTTL)

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(r, providerKey)

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// OAuthCallback handles the OAuth provider callback
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok || !provider.configured() {
		respondWithError(w, h.log, http.StatusBadRequest, "OAuth provider not configured", "", nil)
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithError(w, h.log, http.StatusBadRequest, "Missing authorization code", "", nil)
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state || !h.stateSigner.Valid(state) {
		respondWithError(w, h.log, http.StatusBadRequest, "Invalid OAuth state", "", nil)
		return
	}
	if providerCookie, err := r.Cookie(oauthProviderCookie); err == nil && providerCookie.Value != providerKey {
		respondWithError(w, h.log, http.StatusBadRequest, "OAuth provider mismatch", "", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(r, providerKey)

	token, err := config.Exchange(ctx, code)
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Failed to exchange OAuth code", "oauth code exchange failed", err)
		return
	}

	userInfo, err := h.fetchOAuthUserInfo(ctx, providerKey, provider, token)
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	h.clearTempCookie(w, r, oauthStateCookie)
	h.clearTempCookie(w, r, oauthProviderCookie)

	session, err := h.authService.OAuthLogin(r.Context(), providerKey, userInfo.Subject, userInfo.Email, userInfo.Name)
	if err != nil {
		h.Error(w, r, err)
		return
	}

	h.setSessionCookies(w, r, session)
	http.Redirect(w, r, strings.TrimRight(h.appBaseURL, "/")+"/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) fetchOAuthUserInfo(ctx context.Context, providerKey string, provider OAuthProvider, token *oauth2.Token) (oauthUserInfo, error) {
	switch providerKey {
	case "google":
		return fetchGoogleUser(ctx, provider, token)
	case "github":
		return fetchGitHubUser(ctx, provider, token)
	default:
		return oauthUserInfo{}, errors.New("unsupported OAuth provider")
	}
}

func getJSON(ctx context.Context, client *http.Client, url string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func fetchGoogleUser(ctx context.Context, provider OAuthProvider, token *oauth2.Token) (oauthUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := getJSON(ctx, client, provider.UserInfoURL, &payload); err != nil {
		return oauthUserInfo{}, errors.New("failed to fetch Google user info")
	}

	return oauthUserInfo{Subject: payload.ID, Email: payload.Email, Name: payload.Name}, nil
}

func fetchGitHubUser(ctx context.Context, provider OAuthProvider, token *oauth2.Token) (oauthUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	var payload struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := getJSON(ctx, client, provider.UserInfoURL, &payload); err != nil {
		return oauthUserInfo{}, errors.New("failed to fetch GitHub user info")
	}

	info := oauthUserInfo{Subject: strconv.FormatInt(payload.ID, 10), Email: payload.Email, Name: payload.Name}
	if info.Name == "" {
		info.Name = payload.Login
	}
	if info.Email != "" || provider.EmailsURL == "" {
		return info, nil
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(ctx, client, provider.EmailsURL, &emails); err != nil {
		return oauthUserInfo{}, errors.New("failed to fetch GitHub email addresses")
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			info.Email = e.Email
			return info, nil
		}
	}
	return oauthUserInfo{}, errors.New("GitHub account has no verified primary email")
}

func (h *AuthHandler) oauthRedirectURL(r *http.Request, providerKey string) string {
	baseURL := strings.TrimSpace(h.oauthRedirectBaseURL)
	if baseURL == "" {
		scheme := "http"
		if security.IsSecureRequest(r) {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	return fmt.Sprintf("%s/api/v1/auth/%s/callback", strings.TrimRight(baseURL, "/"), providerKey)
}

func (h *AuthHandler) setTempCookie(w http.ResponseWriter, r *http.Request, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   security.IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
	})
}

func (h *AuthHandler) clearTempCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, security.CreateDeleteCookie(r, name))
}
