package app

import (
	"context"
	"net/http"

	"jerrygfit/api/internal/rbac"
	"jerrygfit/api/internal/store"
)

// collection binds one owner-scoped resource to its service calls. In is the
// create body, Patch the partial update body.
type collection[Row, View, In, Patch any] struct {
	view   func(Row) View
	list   func(context.Context, int64, store.Page) ([]Row, error)
	get    func(context.Context, int64, int64) (Row, error)
	create func(context.Context, int64, In) (Row, error)
	update func(context.Context, int64, int64, Patch) (Row, error)
	remove func(context.Context, int64, int64) error
}

// serveCollection handles /{resource} (GET list, POST create) and
// /{resource}/{id} (GET, PUT or PATCH, DELETE).
func serveCollection[Row, View, In, Patch any](s *HTTPServer, w http.ResponseWriter, r *http.Request, session Session, parts []string, c collection[Row, View, In, Patch]) {
	if !s.service.Can(session.Role, rbac.ActionOwnContent) {
		forbid(w)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			page, err := pageFromQuery(r, defaultPageLimit)
			if err != nil {
				s.fail(w, r, err)
				return
			}
			rows, err := c.list(r.Context(), session.UserID, page)
			if err != nil {
				s.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, mapViews(rows, c.view))
		case http.MethodPost:
			var input In
			if err := decodeInput(r, &input); err != nil {
				s.fail(w, r, err)
				return
			}
			row, err := c.create(r.Context(), session.UserID, input)
			if err != nil {
				s.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusCreated, c.view(row))
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}
	id, ok := parseID(parts[1])
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", map[string]string{"id": "id must be a positive integer"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		row, err := c.get(r.Context(), session.UserID, id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c.view(row))
	case http.MethodPut, http.MethodPatch:
		var patch Patch
		if err := decodeInput(r, &patch); err != nil {
			s.fail(w, r, err)
			return
		}
		row, err := c.update(r.Context(), session.UserID, id, patch)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c.view(row))
	case http.MethodDelete:
		if err := c.remove(r.Context(), session.UserID, id); err != nil {
			s.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *HTTPServer) taskCollection() collection[store.Task, TaskView, TaskInput, TaskPatch] {
	return collection[store.Task, TaskView, TaskInput, TaskPatch]{
		view:   taskView,
		list:   s.service.ListTasks,
		get:    s.service.GetTask,
		create: s.service.CreateTask,
		update: s.service.UpdateTask,
		remove: s.service.DeleteTask,
	}
}

func (s *HTTPServer) riskCollection() collection[store.Risk, RiskView, RiskInput, RiskPatch] {
	return collection[store.Risk, RiskView, RiskInput, RiskPatch]{
		view:   riskView,
		list:   s.service.ListRisks,
		get:    s.service.GetRisk,
		create: s.service.CreateRisk,
		update: s.service.UpdateRisk,
		remove: s.service.DeleteRisk,
	}
}

func (s *HTTPServer) projectCollection() collection[store.Project, ProjectView, ProjectInput, ProjectPatch] {
	return collection[store.Project, ProjectView, ProjectInput, ProjectPatch]{
		view:   projectView,
		list:   s.service.ListProjects,
		get:    s.service.GetProject,
		create: s.service.CreateProject,
		update: s.service.UpdateProject,
		remove: s.service.DeleteProject,
	}
}

func (s *HTTPServer) postCollection() collection[store.Post, PostView, PostInput, PostPatch] {
	return collection[store.Post, PostView, PostInput, PostPatch]{
		view:   postView,
		list:   s.service.ListPosts,
		get:    s.service.GetPost,
		create: s.service.CreatePost,
		update: s.service.UpdatePost,
		remove: s.service.DeletePost,
	}
}
