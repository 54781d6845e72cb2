package app

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"jerrygfit/api/internal/storage"
	"jerrygfit/api/internal/util"
)

const oauthStateCookie = "jerrygfit_oauth_state"

// handlePublicAuth serves the auth routes that need no bearer token. It
// reports false when the route needs a session instead.
func (s *HTTPServer) handlePublicAuth(w http.ResponseWriter, r *http.Request, parts []string) bool {
	route := strings.Join(parts[1:], "/")
	switch {
	case route == "register" && r.Method == http.MethodPost:
		s.handleRegister(w, r)
	case route == "login" && r.Method == http.MethodPost:
		s.handleLogin(w, r)
	case route == "refresh" && r.Method == http.MethodPost:
		s.handleRefresh(w, r)
	case route == "google/login" && r.Method == http.MethodGet:
		s.handleGoogleLogin(w, r)
	case route == "google/callback" && r.Method == http.MethodGet:
		s.handleGoogleCallback(w, r)
	default:
		return false
	}
	return true
}

func (s *HTTPServer) handleSessionAuth(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	route := strings.Join(parts[1:], "/")
	switch {
	case route == "logout" && r.Method == http.MethodPost:
		var body RefreshInput
		if err := decodeBody(r, &body); err != nil {
			s.fail(w, r, err)
			return
		}
		if err := s.service.Logout(r.Context(), session, body.RefreshToken); err != nil {
			s.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case route == "verify" && r.Method == http.MethodGet:
		user, err := s.service.CurrentUser(r.Context(), session.UserID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, userView(user))
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input RegisterInput
	if err := decodeInput(r, &input); err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.service.Register(r.Context(), input)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userView(user))
}

// handleLogin accepts a JSON body or an OAuth2 password-grant style form.
func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input LoginInput
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") || strings.HasPrefix(contentType, "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid form body", nil)
			return
		}
		input.Username = r.PostFormValue("username")
		input.Password = r.PostFormValue("password")
		if err := validateStruct(&input); err != nil {
			s.fail(w, r, err)
			return
		}
	} else if err := decodeInput(r, &input); err != nil {
		s.fail(w, r, err)
		return
	}

	session, err := s.service.Login(r.Context(), input.Username, input.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Tokens())
}

func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var input RefreshInput
	if err := decodeInput(r, &input); err != nil {
		s.fail(w, r, err)
		return
	}
	session, err := s.service.Refresh(r.Context(), input.RefreshToken)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Tokens())
}

func (s *HTTPServer) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := util.NewID("st")
	target, err := s.service.GoogleLoginURL(state)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     apiPrefix + "/auth/google",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// handleGoogleCallback always answers with a redirect to the frontend: tokens
// on success, an error message otherwise.
func (s *HTTPServer) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	frontend := strings.TrimRight(s.service.cfg.FrontendURL, "/")
	fail := func(message string) {
		http.Redirect(w, r, frontend+"/auth/login?"+url.Values{"error": {message}}.Encode(), http.StatusFound)
	}

	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: apiPrefix + "/auth/google", MaxAge: -1})

	query := r.URL.Query()
	if reason := query.Get("error"); reason != "" {
		fail(reason)
		return
	}
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != query.Get("state") {
		fail("Invalid OAuth state")
		return
	}
	code := query.Get("code")
	if code == "" {
		fail("Missing authorization code")
		return
	}

	session, err := s.service.GoogleCallback(r.Context(), code)
	if err != nil {
		requestLogger(r).Warn().Err(err).Msg("google callback failed")
		_, _, message, _ := mapError(err)
		fail(message)
		return
	}

	values := url.Values{
		"access_token":  {session.Token},
		"refresh_token": {session.RefreshToken},
	}
	http.Redirect(w, r, frontend+"/auth/callback?"+values.Encode(), http.StatusFound)
}

func (s *HTTPServer) handleAvatarUpload(w http.ResponseWriter, r *http.Request, session Session) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxAvatarBytes+maxBodyBytes)
	if err := r.ParseMultipartForm(storage.MaxAvatarBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, storage.ErrTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "expected a multipart form with a file field", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", map[string]string{"file": "file is a required field"})
		return
	}
	defer file.Close()

	user, err := s.service.UploadAvatar(r.Context(), session.UserID, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userView(user))
}
