package app

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"jerrygfit/api/internal/domain"
	"jerrygfit/api/internal/oauth"
	"jerrygfit/api/internal/store"
)

func TestRegisterCreatesActiveUser(t *testing.T) {
	var created store.User
	fs := &fakeStore{
		createUserFn: func(_ context.Context, user store.User) (store.User, error) {
			created = user
			user.ID = 42
			return user, nil
		},
	}
	server := newTestServer(newTestService(fs, Options{}))

	rr := doRequest(server, http.MethodPost, "/api/v1/auth/register", "",
		`{"email":"New@Example.com","username":"newbie","password":"longenough","full_name":"New Bie"}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodeJSON(t, rr)
	if payload["id"] != float64(42) || payload["email"] != "new@example.com" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if _, leaked := payload["password_hash"]; leaked {
		t.Fatalf("password hash must not be serialized")
	}
	if created.PasswordHash == "" || created.PasswordHash == "longenough" {
		t.Fatalf("expected a bcrypt hash, got %q", created.PasswordHash)
	}
	if created.Role != domain.RoleUser || !created.IsActive {
		t.Fatalf("unexpected created user %+v", created)
	}
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	fs := &fakeStore{
		getUserByEmailFn: func(context.Context, string) (store.User, error) {
			return activeUser(1, domain.RoleUser), nil
		},
	}
	server := newTestServer(newTestService(fs, Options{}))

	rr := doRequest(server, http.MethodPost, "/api/v1/auth/register", "",
		`{"email":"athlete@example.com","username":"other","password":"longenough"}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	if payload := decodeJSON(t, rr); payload["code"] != "EMAIL_TAKEN" {
		t.Fatalf("expected EMAIL_TAKEN, got %v", payload["code"])
	}
}

func TestRegisterValidatesFields(t *testing.T) {
	server := newTestServer(newTestService(&fakeStore{}, Options{}))

	rr := doRequest(server, http.MethodPost, "/api/v1/auth/register", "",
		`{"email":"not-an-email","username":"x","password":"short"}`)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d body=%s", rr.Code, rr.Body.String())
	}
	details, _ := decodeJSON(t, rr)["details"].(map[string]any)
	if details["email"] == nil || details["password"] == nil {
		t.Fatalf("expected email and password details, got %v", details)
	}
}

func TestRegisterRejectsInvalidJSON(t *testing.T) {
	server := newTestServer(newTestService(&fakeStore{}, Options{}))

	rr := doRequest(server, http.MethodPost, "/api/v1/auth/register", "", `{"email":`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func loginStore(t *testing.T, password string) (*fakeStore, store.User) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}
	user := activeUser(8, domain.RoleUser)
	user.PasswordHash = string(hash)
	fs := &fakeStore{
		getUserByIDFn: usersByID(user),
		getUserByLoginFn: func(_ context.Context, login string) (store.User, error) {
			if login == user.Username || login == user.Email {
				return user, nil
			}
			return store.User{}, sql.ErrNoRows
		},
	}
	return fs, user
}

func TestLoginReturnsTokenPair(t *testing.T) {
	fs, _ := loginStore(t, "s3cret-pass")
	server := newTestServer(newTestService(fs, Options{}))

	rr := doRequest(server, http.MethodPost, "/api/v1/auth/login", "",
		`{"username":"athlete@example.com","password":"s3cret-pass"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodeJSON(t, rr)
	if payload["token_type"] != "bearer" {
		t.Fatalf("expected bearer token type, got %v", payload["token_type"])
	}
	access, _ := payload["access_token"].(string)
	if access == "" || payload["refresh_token"] == "" {
		t.Fatalf("expected both tokens, got %v", payload)
	}

	verify := doRequest(server, http.MethodGet, "/api/v1/auth/verify", "Bearer "+access, "")
	if verify.Code != http.StatusOK {
		t.Fatalf("expected verify 200, got %d body=%s", verify.Code, verify.Body.String())
	}
	if decodeJSON(t, verify)["username"] != "athlete" {
		t.Fatalf("expected verified user athlete")
	}
}

func TestLoginAcceptsFormBody(t *testing.T) {
	fs, _ := loginStore(t, "s3cret-pass")
	server := newTestServer(newTestService(fs, Options{}))

	form := url.Values{"username": {"athlete"}, "password": {"s3cret-pass"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	fs, _ := loginStore(t, "s3cret-pass")
	server := newTestServer(newTestService(fs, Options{}))

	rr := doRequest(server, http.MethodPost, "/api/v1/auth/login", "",
		`{"username":"athlete","password":"nope"}`)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
	if payload := decodeJSON(t, rr); payload["code"] != "INVALID_CREDENTIALS" {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", payload["code"])
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	fs, user := loginStore(t, "s3cret-pass")
	user.IsActive = false
	fs.getUserByLoginFn = func(context.Context, string) (store.User, error) { return user, nil }
	server := newTestServer(newTestService(fs, Options{}))

	rr := doRequest(server, http.MethodPost, "/api/v1/auth/login", "",
		`{"username":"athlete","password":"s3cret-pass"}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestRefreshEndpointRotates(t *testing.T) {
	fs, user := loginStore(t, "s3cret-pass")
	svc := newTestService(fs, Options{})
	server := newTestServer(svc)
	session, err := svc.issueSession(context.Background(), user)
	if err != nil {
		t.Fatalf("issueSession() error = %v", err)
	}

	body := `{"refresh_token":"` + session.RefreshToken + `"}`
	first := doRequest(server, http.MethodPost, "/api/v1/auth/refresh", "", body)
	if first.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", first.Code, first.Body.String())
	}
	second := doRequest(server, http.MethodPost, "/api/v1/auth/refresh", "", body)
	if second.Code != http.StatusUnauthorized {
		t.Fatalf("expected reused refresh token to be rejected, got %d", second.Code)
	}
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	fs, user := loginStore(t, "s3cret-pass")
	svc := newTestService(fs, Options{})
	server := newTestServer(svc)
	bearer := bearerFor(t, svc, user)

	rr := doRequest(server, http.MethodPost, "/api/v1/auth/logout", bearer, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d body=%s", rr.Code, rr.Body.String())
	}

	after := doRequest(server, http.MethodGet, "/api/v1/users/me", bearer, "")
	if after.Code != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to be rejected, got %d", after.Code)
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	server := newTestServer(newTestService(&fakeStore{}, Options{}))

	missing := doRequest(server, http.MethodGet, "/api/v1/tasks", "", "")
	if missing.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", missing.Code)
	}
	garbage := doRequest(server, http.MethodGet, "/api/v1/tasks", "Bearer not-a-jwt", "")
	if garbage.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for bad token, got %d", garbage.Code)
	}
}

func TestDeletedUserTokenIsRejected(t *testing.T) {
	user := activeUser(12, domain.RoleUser)
	fs := &fakeStore{}
	svc := newTestService(fs, Options{})
	bearer := bearerFor(t, svc, user)

	rr := doRequest(newTestServer(svc), http.MethodGet, "/api/v1/users/me", bearer, "")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestGoogleLoginSetsStateCookie(t *testing.T) {
	server := newTestServer(newTestService(&fakeStore{}, Options{Google: &fakeGoogle{}}))

	rr := doRequest(server, http.MethodGet, "/api/v1/auth/google/login", "", "")

	if rr.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected status 307, got %d", rr.Code)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != oauthStateCookie || cookies[0].Value == "" {
		t.Fatalf("expected state cookie, got %v", cookies)
	}
	if !strings.Contains(rr.Header().Get("Location"), "state="+cookies[0].Value) {
		t.Fatalf("expected state in redirect, got %q", rr.Header().Get("Location"))
	}
}

func TestGoogleLoginWithoutCredentials(t *testing.T) {
	server := newTestServer(newTestService(&fakeStore{}, Options{}))

	rr := doRequest(server, http.MethodGet, "/api/v1/auth/google/login", "", "")

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}

func googleCallback(server http.Handler, state, cookieState, code string) *httptest.ResponseRecorder {
	target := "/api/v1/auth/google/callback?" + url.Values{"state": {state}, "code": {code}}.Encode()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if cookieState != "" {
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: cookieState})
	}
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)
	return rr
}

func TestGoogleCallbackRejectsStateMismatch(t *testing.T) {
	server := newTestServer(newTestService(&fakeStore{}, Options{Google: &fakeGoogle{}}))

	rr := googleCallback(server, "abc", "xyz", "code-1")

	if rr.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rr.Code)
	}
	location := rr.Header().Get("Location")
	if !strings.HasPrefix(location, "http://frontend.test/auth/login?error=") {
		t.Fatalf("expected login error redirect, got %q", location)
	}
}

func TestGoogleCallbackRedirectsWithTokens(t *testing.T) {
	linked := activeUser(15, domain.RoleUser)
	linked.GoogleID = "g-15"
	fs := &fakeStore{
		getUserByGoogleIDFn: func(_ context.Context, googleID string) (store.User, error) {
			if googleID == "g-15" {
				return linked, nil
			}
			return store.User{}, sql.ErrNoRows
		},
	}
	google := &fakeGoogle{
		exchangeFn: func(_ context.Context, code string) (oauth.Profile, error) {
			if code != "code-1" {
				t.Fatalf("unexpected code %q", code)
			}
			return oauth.Profile{Subject: "g-15", Email: "athlete@example.com"}, nil
		},
	}
	server := newTestServer(newTestService(fs, Options{Google: google}))

	rr := googleCallback(server, "st-1", "st-1", "code-1")

	if rr.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rr.Code)
	}
	location, err := url.Parse(rr.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if location.Path != "/auth/callback" {
		t.Fatalf("expected callback redirect, got %q", location.String())
	}
	if location.Query().Get("access_token") == "" || location.Query().Get("refresh_token") == "" {
		t.Fatalf("expected tokens in redirect, got %q", location.RawQuery)
	}
}
