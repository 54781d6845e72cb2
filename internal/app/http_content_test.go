package app

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"jerrygfit/api/internal/domain"
	"jerrygfit/api/internal/search"
	"jerrygfit/api/internal/store"
)

func contentServer(t *testing.T, fs *fakeStore, index *fakeIndex) (http.Handler, string) {
	t.Helper()
	user := activeUser(1, domain.RoleUser)
	fs.getUserByIDFn = usersByID(user)
	svc := newTestService(fs, Options{Search: index})
	return newTestServer(svc), bearerFor(t, svc, user)
}

func TestCreateTaskAppliesDefaults(t *testing.T) {
	var saved store.Task
	fs := &fakeStore{
		createTaskFn: func(_ context.Context, task store.Task) (store.Task, error) {
			saved = task
			task.ID = 10
			task.CreatedAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
			return task, nil
		},
	}
	index := &fakeIndex{}
	server, bearer := contentServer(t, fs, index)

	rr := doRequest(server, http.MethodPost, "/api/v1/tasks", bearer, `{"title":"Write plan"}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	if saved.OwnerID != 1 || saved.Status != domain.TaskTodo || saved.Priority != domain.PriorityMedium {
		t.Fatalf("unexpected stored task %+v", saved)
	}
	payload := decodeJSON(t, rr)
	if payload["id"] != float64(10) || payload["completed"] != false || payload["description"] != nil {
		t.Fatalf("unexpected payload %v", payload)
	}
	if len(index.indexed) != 1 || index.indexed[0].Kind != search.ResultTask {
		t.Fatalf("expected task to be indexed, got %v", index.indexed)
	}
}

func TestCreateTaskDoneIsCompleted(t *testing.T) {
	var saved store.Task
	fs := &fakeStore{
		createTaskFn: func(_ context.Context, task store.Task) (store.Task, error) {
			saved = task
			return task, nil
		},
	}
	server, bearer := contentServer(t, fs, &fakeIndex{})

	rr := doRequest(server, http.MethodPost, "/api/v1/tasks", bearer, `{"title":"Ship","status":"DONE"}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	if saved.Status != domain.TaskDone || !saved.Completed {
		t.Fatalf("expected done task to be completed, got %+v", saved)
	}
}

func TestCreateTaskRejectsUnknownStatus(t *testing.T) {
	server, bearer := contentServer(t, &fakeStore{}, &fakeIndex{})

	rr := doRequest(server, http.MethodPost, "/api/v1/tasks", bearer, `{"title":"Ship","status":"someday"}`)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d body=%s", rr.Code, rr.Body.String())
	}
	details, _ := decodeJSON(t, rr)["details"].(map[string]any)
	if details["status"] == nil {
		t.Fatalf("expected status detail, got %v", details)
	}
}

func TestCreateTaskRequiresTitle(t *testing.T) {
	server, bearer := contentServer(t, &fakeStore{}, &fakeIndex{})

	rr := doRequest(server, http.MethodPost, "/api/v1/tasks", bearer, `{"description":"no title"}`)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rr.Code)
	}
}

func TestGetTaskOfAnotherOwnerIsNotFound(t *testing.T) {
	fs := &fakeStore{
		getTaskFn: func(_ context.Context, ownerID, id int64) (store.Task, error) {
			if ownerID == 2 && id == 5 {
				return store.Task{ID: 5, OwnerID: 2}, nil
			}
			return store.Task{}, sql.ErrNoRows
		},
	}
	server, bearer := contentServer(t, fs, &fakeIndex{})

	rr := doRequest(server, http.MethodGet, "/api/v1/tasks/5", bearer, "")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	if payload := decodeJSON(t, rr); payload["error"] != "Task not found" {
		t.Fatalf("expected Task not found, got %v", payload["error"])
	}
}

func TestPatchTaskKeepsUnsetFields(t *testing.T) {
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	existing := store.Task{
		ID:          5,
		OwnerID:     1,
		Title:       "Original",
		Description: "Keep me",
		Status:      domain.TaskDone,
		Priority:    domain.PriorityHigh,
		DueDate:     &due,
		Completed:   true,
	}
	var saved store.Task
	fs := &fakeStore{
		getTaskFn: func(_ context.Context, ownerID, id int64) (store.Task, error) {
			if ownerID == 1 && id == 5 {
				return existing, nil
			}
			return store.Task{}, sql.ErrNoRows
		},
		updateTaskFn: func(_ context.Context, task store.Task) (store.Task, error) {
			saved = task
			return task, nil
		},
	}
	server, bearer := contentServer(t, fs, &fakeIndex{})

	rr := doRequest(server, http.MethodPatch, "/api/v1/tasks/5", bearer, `{"status":"in_progress"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if saved.Title != "Original" || saved.Description != "Keep me" || saved.Priority != domain.PriorityHigh {
		t.Fatalf("expected untouched fields, got %+v", saved)
	}
	if saved.Status != domain.TaskInProgress || saved.Completed {
		t.Fatalf("expected reopened task, got %+v", saved)
	}
	if saved.DueDate == nil || !saved.DueDate.Equal(due) {
		t.Fatalf("expected due date kept, got %v", saved.DueDate)
	}
}

func TestPatchTaskExplicitCompletedWins(t *testing.T) {
	var saved store.Task
	fs := &fakeStore{
		getTaskFn: func(context.Context, int64, int64) (store.Task, error) {
			return store.Task{ID: 5, OwnerID: 1, Title: "T", Status: domain.TaskTodo}, nil
		},
		updateTaskFn: func(_ context.Context, task store.Task) (store.Task, error) {
			saved = task
			return task, nil
		},
	}
	server, bearer := contentServer(t, fs, &fakeIndex{})

	rr := doRequest(server, http.MethodPut, "/api/v1/tasks/5", bearer, `{"status":"done","completed":false}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if saved.Status != domain.TaskDone || saved.Completed {
		t.Fatalf("expected explicit completed=false to win, got %+v", saved)
	}
}

func TestDeleteTaskDropsSearchRecord(t *testing.T) {
	var deletedOwner, deletedID int64
	fs := &fakeStore{
		deleteTaskFn: func(_ context.Context, ownerID, id int64) error {
			deletedOwner, deletedID = ownerID, id
			return nil
		},
	}
	index := &fakeIndex{}
	server, bearer := contentServer(t, fs, index)

	rr := doRequest(server, http.MethodDelete, "/api/v1/tasks/9", bearer, "")

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if deletedOwner != 1 || deletedID != 9 {
		t.Fatalf("expected owner-scoped delete, got owner=%d id=%d", deletedOwner, deletedID)
	}
	if len(index.deleted) != 1 || index.deleted[0] != "task:9" {
		t.Fatalf("expected search record removal, got %v", index.deleted)
	}
}

func TestDeleteMissingTaskIsNotFound(t *testing.T) {
	fs := &fakeStore{
		deleteTaskFn: func(context.Context, int64, int64) error { return sql.ErrNoRows },
	}
	index := &fakeIndex{}
	server, bearer := contentServer(t, fs, index)

	rr := doRequest(server, http.MethodDelete, "/api/v1/tasks/9", bearer, "")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	if len(index.deleted) != 0 {
		t.Fatalf("expected no index change, got %v", index.deleted)
	}
}

func TestTaskIDMustBePositive(t *testing.T) {
	server, bearer := contentServer(t, &fakeStore{}, &fakeIndex{})

	rr := doRequest(server, http.MethodGet, "/api/v1/tasks/abc", bearer, "")

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rr.Code)
	}
}

func TestListTasksPassesPage(t *testing.T) {
	var got store.Page
	fs := &fakeStore{
		listTasksFn: func(_ context.Context, ownerID int64, page store.Page) ([]store.Task, error) {
			got = page
			return nil, nil
		},
	}
	server, bearer := contentServer(t, fs, &fakeIndex{})

	rr := doRequest(server, http.MethodGet, "/api/v1/tasks?skip=5&limit=10", bearer, "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if got.Skip != 5 || got.Limit != 10 {
		t.Fatalf("unexpected page %+v", got)
	}
	if body := rr.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty JSON array, got %q", body)
	}

	bad := doRequest(server, http.MethodGet, "/api/v1/tasks?limit=5000", bearer, "")
	if bad.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422 for oversized limit, got %d", bad.Code)
	}
}

func TestCreateRiskDefaults(t *testing.T) {
	var saved store.Risk
	fs := &fakeStore{
		createRiskFn: func(_ context.Context, risk store.Risk) (store.Risk, error) {
			saved = risk
			return risk, nil
		},
	}
	server, bearer := contentServer(t, fs, &fakeIndex{})

	rr := doRequest(server, http.MethodPost, "/api/v1/risks", bearer, `{"title":"Injury","severity":"high"}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	if saved.Severity != domain.LevelHigh || saved.Probability != domain.ProbabilityMedium ||
		saved.Impact != domain.LevelMedium || saved.Status != domain.RiskOpen {
		t.Fatalf("unexpected stored risk %+v", saved)
	}
}

func TestCreateProjectValidatesProgress(t *testing.T) {
	server, bearer := contentServer(t, &fakeStore{}, &fakeIndex{})

	rr := doRequest(server, http.MethodPost, "/api/v1/projects", bearer, `{"name":"Spring","progress":140}`)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreatePostRejectsForeignProject(t *testing.T) {
	created := false
	fs := &fakeStore{
		getProjectFn: func(_ context.Context, ownerID, id int64) (store.Project, error) {
			if ownerID == 1 && id == 3 {
				return store.Project{ID: 3, OwnerID: 1}, nil
			}
			return store.Project{}, sql.ErrNoRows
		},
		createPostFn: func(_ context.Context, post store.Post) (store.Post, error) {
			created = true
			return post, nil
		},
	}
	server, bearer := contentServer(t, fs, &fakeIndex{})

	foreign := doRequest(server, http.MethodPost, "/api/v1/posts", bearer, `{"title":"Hi","content":"Body","project_id":77}`)
	if foreign.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d body=%s", foreign.Code, foreign.Body.String())
	}
	if created {
		t.Fatalf("post must not be stored for a foreign project")
	}

	owned := doRequest(server, http.MethodPost, "/api/v1/posts", bearer, `{"title":"Hi","content":"Body","project_id":3}`)
	if owned.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", owned.Code, owned.Body.String())
	}
}

func TestCreatePostRejectsNegativeCounters(t *testing.T) {
	server, bearer := contentServer(t, &fakeStore{}, &fakeIndex{})

	rr := doRequest(server, http.MethodPost, "/api/v1/posts", bearer, `{"title":"Hi","content":"Body","likes":-1}`)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rr.Code)
	}
}

func TestRecordEngagementMetric(t *testing.T) {
	var saved store.EngagementMetric
	fs := &fakeStore{
		createEngagementFn: func(_ context.Context, metric store.EngagementMetric) (store.EngagementMetric, error) {
			saved = metric
			metric.ID = 4
			return metric, nil
		},
	}
	server, bearer := contentServer(t, fs, &fakeIndex{})

	rr := doRequest(server, http.MethodPost, "/api/v1/engagement", bearer, `{"metric_type":" likes ","metric_value":12.5}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	if saved.UserID != 1 || saved.MetricType != "likes" || saved.MetricValue != 12.5 {
		t.Fatalf("unexpected metric %+v", saved)
	}
}
