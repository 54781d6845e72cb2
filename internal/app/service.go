package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"jerrygfit/api/internal/ai"
	"jerrygfit/api/internal/auth"
	"jerrygfit/api/internal/authpw"
	"jerrygfit/api/internal/config"
	"jerrygfit/api/internal/domain"
	"jerrygfit/api/internal/export"
	"jerrygfit/api/internal/oauth"
	"jerrygfit/api/internal/rbac"
	"jerrygfit/api/internal/search"
	"jerrygfit/api/internal/store"
	"jerrygfit/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       int64
	UserName     string
	Role         domain.UserRole
	JTI          string
	ExpiresAt    time.Time
}

func (s Session) Tokens() TokenPair {
	return TokenPair{AccessToken: s.Token, RefreshToken: s.RefreshToken, TokenType: "bearer"}
}

type dataStore interface {
	Ping(context.Context) error

	CreateUser(context.Context, store.User) (store.User, error)
	GetUserByID(context.Context, int64) (store.User, error)
	GetUserByEmail(context.Context, string) (store.User, error)
	GetUserByUsername(context.Context, string) (store.User, error)
	GetUserByLogin(context.Context, string) (store.User, error)
	GetUserByGoogleID(context.Context, string) (store.User, error)
	UpdateUser(context.Context, store.User) (store.User, error)
	UpdateUserPassword(context.Context, int64, string) error
	ListUsers(context.Context, store.Page) ([]store.User, error)
	DeleteUserCascade(context.Context, int64) error

	CreateTask(context.Context, store.Task) (store.Task, error)
	GetTask(context.Context, int64, int64) (store.Task, error)
	ListTasks(context.Context, int64, store.Page) ([]store.Task, error)
	UpdateTask(context.Context, store.Task) (store.Task, error)
	DeleteTask(context.Context, int64, int64) error

	CreateRisk(context.Context, store.Risk) (store.Risk, error)
	GetRisk(context.Context, int64, int64) (store.Risk, error)
	ListRisks(context.Context, int64, store.Page) ([]store.Risk, error)
	UpdateRisk(context.Context, store.Risk) (store.Risk, error)
	DeleteRisk(context.Context, int64, int64) error

	CreateProject(context.Context, store.Project) (store.Project, error)
	GetProject(context.Context, int64, int64) (store.Project, error)
	ListProjects(context.Context, int64, store.Page) ([]store.Project, error)
	UpdateProject(context.Context, store.Project) (store.Project, error)
	DeleteProject(context.Context, int64, int64) error

	CreatePost(context.Context, store.Post) (store.Post, error)
	GetPost(context.Context, int64, int64) (store.Post, error)
	ListPosts(context.Context, int64, store.Page) ([]store.Post, error)
	UpdatePost(context.Context, store.Post) (store.Post, error)
	DeletePost(context.Context, int64, int64) error

	CreateAIRequest(context.Context, store.AIRequest) (store.AIRequest, error)
	ListAIRequests(context.Context, int64, store.Page) ([]store.AIRequest, error)
	CountAIRequests(context.Context, int64) (int, error)
	CreateEngagementMetric(context.Context, store.EngagementMetric) (store.EngagementMetric, error)
	ListEngagementMetrics(context.Context, int64, string, store.Page) ([]store.EngagementMetric, error)
}

// sessionStore keeps refresh sessions and the access-token denylist. Both the
// Postgres store and session.RedisStore satisfy it.
type sessionStore interface {
	SaveRefreshSession(context.Context, string, int64, time.Time) error
	LookupRefreshSession(context.Context, string) (int64, error)
	ConsumeRefreshSession(context.Context, string) (int64, error)
	RevokeRefreshSession(context.Context, string) error
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
}

type contentIndex interface {
	Search(context.Context, search.Query) search.Response
	Index(context.Context, search.Record)
	Delete(context.Context, search.ResultType, int64)
}

type reportExporter interface {
	Export(context.Context, export.Format, export.ReportData) (*export.Result, error)
}

type avatarUploader interface {
	UploadAvatar(ctx context.Context, userID int64, contentType string, body io.Reader, size int64) (string, error)
}

type googleProvider interface {
	Configured() bool
	AuthCodeURL(state string) (string, error)
	Exchange(ctx context.Context, code string) (oauth.Profile, error)
}

// Options carries the optional collaborators. Nil fields fall back to
// Postgres-backed or disabled implementations.
type Options struct {
	Sessions sessionStore
	Gateway  ai.Gateway
	Search   contentIndex
	Exporter reportExporter
	Avatars  avatarUploader
	Google   googleProvider
	Logger   zerolog.Logger
}

type Service struct {
	cfg       config.Config
	store     dataStore
	sessions  sessionStore
	passwords *authpw.Service
	gateway   ai.Gateway
	index     contentIndex
	exporter  reportExporter
	avatars   avatarUploader
	google    googleProvider
	log       zerolog.Logger
	now       func() time.Time
}

func New(cfg config.Config, dataStore *store.PostgresStore, opts Options) *Service {
	return newService(cfg, dataStore, opts)
}

func newService(cfg config.Config, dataStore dataStore, opts Options) *Service {
	svc := &Service{
		cfg:       cfg,
		store:     dataStore,
		sessions:  opts.Sessions,
		passwords: authpw.NewService(dataStore),
		gateway:   opts.Gateway,
		index:     opts.Search,
		exporter:  opts.Exporter,
		avatars:   opts.Avatars,
		google:    opts.Google,
		log:       opts.Logger,
		now:       time.Now,
	}
	if svc.sessions == nil {
		if sessions, ok := dataStore.(sessionStore); ok {
			svc.sessions = sessions
		}
	}
	if svc.gateway == nil {
		svc.gateway = ai.NewOpenAIGateway(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	if svc.index == nil {
		svc.index = noopIndex{}
	}
	if svc.exporter == nil {
		svc.exporter = export.NewService(export.PDFRenderer{ChromePath: cfg.ChromePath})
	}
	if svc.google == nil {
		svc.google = oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)
	}
	return svc
}

type noopIndex struct{}

func (noopIndex) Search(_ context.Context, q search.Query) search.Response {
	return search.Response{Results: []search.Result{}, Query: q.Text}
}
func (noopIndex) Index(context.Context, search.Record)             {}
func (noopIndex) Delete(context.Context, search.ResultType, int64) {}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) Can(role domain.UserRole, action rbac.Action) bool {
	return rbac.Can(role, action)
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (store.User, error) {
	return s.passwords.Register(ctx, authpw.RegisterRequest{
		Email:    input.Email,
		Username: input.Username,
		Password: input.Password,
		FullName: input.FullName,
	})
}

func (s *Service) Login(ctx context.Context, login, password string) (Session, error) {
	user, err := s.passwords.Authenticate(ctx, login, password)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// pair is issued. The token survives a refresh refused for an inactive user,
// and of two concurrent refreshes only one consumes it.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	userID, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, auth.ErrInvalidToken
	}
	if err != nil {
		return Session{}, err
	}
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return Session{}, err
	}

	consumedBy, err := s.sessions.ConsumeRefreshSession(ctx, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, auth.ErrInvalidToken
	}
	if err != nil {
		return Session{}, err
	}
	if consumedBy != user.ID {
		return Session{}, auth.ErrInvalidToken
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")
	role := rbac.Normalize(string(user.Role), user.IsSuperuser)

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), user.ID, user.DisplayName(), string(role), jti, expiresAt)
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, now.Add(s.cfg.RefreshTTL)); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName(),
		Role:         role,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

// SessionFromToken validates a bearer token and loads the current user. The
// role comes from the database, not the token, so demotions apply at once.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.sessions.IsAccessTokenRevoked(ctx, claims.ID)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil || userID <= 0 {
		return Session{}, auth.ErrInvalidToken
	}
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName(),
		Role:      rbac.Normalize(string(user.Role), user.IsSuperuser),
		JTI:       claims.ID,
		ExpiresAt: claims.Expiry(),
	}, nil
}

func (s *Service) activeUser(ctx context.Context, userID int64) (store.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, auth.ErrInvalidToken
	}
	if err != nil {
		return store.User{}, err
	}
	if !user.IsActive {
		return store.User{}, authpw.ErrInactiveUser
	}
	return user, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		if err := s.sessions.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt); err != nil {
			s.log.Warn().Err(err).Int64("user_id", session.UserID).Msg("revoke access token")
		}
	}
	if refreshToken != "" {
		if err := s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken)); err != nil {
			s.log.Warn().Err(err).Int64("user_id", session.UserID).Msg("revoke refresh token")
		}
	}
	return nil
}

func (s *Service) GoogleLoginURL(state string) (string, error) {
	return s.google.AuthCodeURL(state)
}

// GoogleCallback exchanges the code and signs in the matching account: first
// by google id, then by email (linking the google id), otherwise a new user.
func (s *Service) GoogleCallback(ctx context.Context, code string) (Session, error) {
	profile, err := s.google.Exchange(ctx, code)
	if err != nil {
		return Session{}, err
	}

	user, err := s.userForGoogleProfile(ctx, profile)
	if err != nil {
		return Session{}, err
	}
	if !user.IsActive {
		return Session{}, authpw.ErrInactiveUser
	}
	return s.issueSession(ctx, user)
}

func (s *Service) userForGoogleProfile(ctx context.Context, profile oauth.Profile) (store.User, error) {
	user, err := s.store.GetUserByGoogleID(ctx, profile.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return store.User{}, fmt.Errorf("lookup google user: %w", err)
	}

	email := strings.ToLower(profile.Email)
	user, err = s.store.GetUserByEmail(ctx, email)
	if err == nil {
		user.GoogleID = profile.Subject
		if user.FullName == "" {
			user.FullName = profile.Name
		}
		if user.ProfilePicture == "" {
			user.ProfilePicture = profile.Picture
		}
		return s.store.UpdateUser(ctx, user)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return store.User{}, fmt.Errorf("lookup user by email: %w", err)
	}

	username, err := s.freeUsername(ctx, strings.SplitN(email, "@", 2)[0])
	if err != nil {
		return store.User{}, err
	}
	return s.store.CreateUser(ctx, store.User{
		Email:          email,
		Username:       username,
		FullName:       profile.Name,
		ProfilePicture: profile.Picture,
		GoogleID:       profile.Subject,
		IsActive:       true,
		Role:           domain.RoleUser,
	})
}

// freeUsername returns base, or base with a random suffix when taken.
func (s *Service) freeUsername(ctx context.Context, base string) (string, error) {
	_, err := s.store.GetUserByUsername(ctx, base)
	if errors.Is(err, sql.ErrNoRows) {
		return base, nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup username: %w", err)
	}
	return base + "_" + util.RandomHex(4), nil
}

func (s *Service) GoogleConfigured() bool {
	return s.google.Configured()
}

func serviceUnavailable(err error) error {
	return fmt.Errorf("%w: %v", domainError(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable", nil), err)
}

func ownedOrNotFound(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(entity)
	}
	return err
}
