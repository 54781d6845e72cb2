package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"jerrygfit/api/internal/domain"
	"jerrygfit/api/internal/export"
	"jerrygfit/api/internal/metrics"
	"jerrygfit/api/internal/rbac"
	"jerrygfit/api/internal/store"
)

const (
	apiPrefix        = "/api/v1"
	defaultPageLimit = 100
	maxPageLimit     = 1000
	maxBodyBytes     = 1 << 20
)

type HTTPServer struct {
	service *Service
	cors    *cors.Cors
	log     zerolog.Logger
}

func NewHTTPServer(service *Service, corsOrigins []string, log zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		service: service,
		cors: cors.New(cors.Options{
			AllowedOrigins:   corsOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
			AllowCredentials: true,
		}),
		log: log,
	}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(s.cors.Handler(http.HandlerFunc(s.handle)))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	isRead := r.Method == http.MethodGet || r.Method == http.MethodHead

	switch {
	case isRead && r.URL.Path == "/":
		writeJSON(w, http.StatusOK, map[string]any{"message": "JerryGFit API", "version": "1.0.0", "docs": apiPrefix})
		return
	case isRead && r.URL.Path == "/health":
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
		return
	case isRead && r.URL.Path == "/ready":
		s.handleReady(w, r)
		return
	case isRead && r.URL.Path == "/metrics":
		metrics.Handler().ServeHTTP(w, r)
		return
	}

	parts := splitPath(strings.TrimPrefix(r.URL.Path, apiPrefix))
	if !strings.HasPrefix(r.URL.Path, apiPrefix+"/") || len(parts) == 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	if parts[0] == "auth" && s.handlePublicAuth(w, r, parts) {
		return
	}

	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	switch parts[0] {
	case "auth":
		s.handleSessionAuth(w, r, session, parts)
	case "users":
		s.handleUsers(w, r, session, parts)
	case "tasks":
		serveCollection(s, w, r, session, parts, s.taskCollection())
	case "risks":
		serveCollection(s, w, r, session, parts, s.riskCollection())
	case "projects":
		serveCollection(s, w, r, session, parts, s.projectCollection())
	case "posts":
		serveCollection(s, w, r, session, parts, s.postCollection())
	case "engagement":
		s.handleEngagement(w, r, session, parts)
	case "ai":
		s.handleAI(w, r, session, parts)
	case "analytics":
		s.handleAnalytics(w, r, session, parts)
	case "search":
		s.handleSearch(w, r, session, parts)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database": map[string]any{"status": "ok"},
	}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["database"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleUsers(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		if !s.service.Can(session.Role, rbac.ActionListUsers) {
			forbid(w)
			return
		}
		page, err := pageFromQuery(r, defaultPageLimit)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		users, err := s.service.ListUsers(r.Context(), page)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, mapViews(users, userView))
		return
	}

	if parts[1] != "me" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		user, err := s.service.CurrentUser(r.Context(), session.UserID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, userView(user))

	case len(parts) == 2 && (r.Method == http.MethodPut || r.Method == http.MethodPatch):
		var input UserUpdateInput
		if err := decodeInput(r, &input); err != nil {
			s.fail(w, r, err)
			return
		}
		user, err := s.service.UpdateProfile(r.Context(), session.UserID, input)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, userView(user))

	case len(parts) == 2 && r.Method == http.MethodDelete:
		if err := s.service.DeleteAccount(r.Context(), session); err != nil {
			s.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case len(parts) == 3 && parts[2] == "password" && r.Method == http.MethodPost:
		var input PasswordChangeInput
		if err := decodeInput(r, &input); err != nil {
			s.fail(w, r, err)
			return
		}
		if err := s.service.ChangePassword(r.Context(), session.UserID, input); err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Password updated successfully"})

	case len(parts) == 3 && parts[2] == "avatar" && r.Method == http.MethodPost:
		s.handleAvatarUpload(w, r, session)

	case len(parts) == 3 && parts[2] == "export" && r.Method == http.MethodGet:
		data, err := s.service.ExportUserData(r.Context(), session.UserID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, data)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleEngagement(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if len(parts) != 1 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}
	if !s.service.Can(session.Role, rbac.ActionOwnContent) {
		forbid(w)
		return
	}

	switch r.Method {
	case http.MethodGet:
		page, err := pageFromQuery(r, defaultPageLimit)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		metricsList, err := s.service.ListEngagement(r.Context(), session.UserID, r.URL.Query().Get("metric_type"), page)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, mapViews(metricsList, engagementView))
	case http.MethodPost:
		var input EngagementInput
		if err := decodeInput(r, &input); err != nil {
			s.fail(w, r, err)
			return
		}
		metric, err := s.service.RecordEngagement(r.Context(), session.UserID, input)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, engagementView(metric))
	default:
		methodNotAllowed(w)
	}
}

func (s *HTTPServer) handleAI(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch {
	case len(parts) == 2 && parts[1] == "generate" && r.Method == http.MethodPost:
		if !s.service.Can(session.Role, rbac.ActionGenerate) {
			forbid(w)
			return
		}
		var input GenerateInput
		if err := decodeInput(r, &input); err != nil {
			s.fail(w, r, err)
			return
		}
		result, err := s.service.Generate(r.Context(), session.UserID, input)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case len(parts) == 2 && parts[1] == "history" && r.Method == http.MethodGet:
		page, err := pageFromQuery(r, aiHistoryDefaultLimit)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		requests, err := s.service.AIHistory(r.Context(), session.UserID, page)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, mapViews(requests, aiRequestView))

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleAnalytics(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	if len(parts) == 1 {
		report, err := s.service.Analytics(r.Context(), session.UserID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
		return
	}

	if len(parts) != 3 || parts[1] != "export" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}
	var format export.Format
	switch parts[2] {
	case "pdf":
		format = export.FormatPDF
	case "excel", "xlsx":
		format = export.FormatXLSX
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}
	if !s.service.Can(session.Role, rbac.ActionExport) {
		forbid(w)
		return
	}

	result, err := s.service.ExportReport(r.Context(), session, format)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if len(parts) != 1 || r.Method != http.MethodGet {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	response, err := s.service.Search(r.Context(), session.UserID, query.Get("q"), query.Get("type"), limit, offset)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated", nil)
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		status, code, message, details := mapError(err)
		if status >= http.StatusInternalServerError {
			requestLogger(r).Error().Err(err).Msg("session lookup failed")
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
			return Session{}, false
		}
		writeError(w, status, code, message, details)
		return Session{}, false
	}
	return session, true
}

// fail writes the mapped error response. Server errors are logged with the
// request's logger.
func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		requestLogger(r).Error().Err(err).Str("code", code).Msg("request failed")
	}
	writeError(w, status, code, message, details)
}

func forbid(w http.ResponseWriter) {
	writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		var enumErr *domain.InvalidValueError
		if errors.As(err, &enumErr) {
			return enumErr
		}
		return domainError(http.StatusBadRequest, "INVALID_BODY", "invalid JSON body", nil)
	}
	return nil
}

// decodeInput decodes a JSON body into target and validates it.
func decodeInput(r *http.Request, target any) error {
	if err := decodeBody(r, target); err != nil {
		return err
	}
	return validateStruct(target)
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// pageFromQuery reads skip and limit. limit defaults to fallback and is capped.
func pageFromQuery(r *http.Request, fallback int) (store.Page, error) {
	query := r.URL.Query()
	page := store.Page{Skip: 0, Limit: fallback}
	if raw := query.Get("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return store.Page{}, validationError("Validation failed", map[string]string{"skip": "skip must be a non-negative integer"})
		}
		page.Skip = skip
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxPageLimit {
			return store.Page{}, validationError("Validation failed", map[string]string{"limit": "limit must be between 1 and 1000"})
		}
		page.Limit = limit
	}
	return page, nil
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil && id > 0
}
