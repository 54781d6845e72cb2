package app

import (
	"context"
	"strings"

	"jerrygfit/api/internal/search"
	"jerrygfit/api/internal/store"
)

// Every read and write here is scoped to ownerID. A row owned by someone
// else is indistinguishable from a missing one.

func (s *Service) CreateTask(ctx context.Context, ownerID int64, input TaskInput) (store.Task, error) {
	task, err := s.store.CreateTask(ctx, input.task(ownerID))
	if err != nil {
		return store.Task{}, err
	}
	s.index.Index(ctx, search.TaskRecord(task))
	return task, nil
}

func (s *Service) GetTask(ctx context.Context, ownerID, id int64) (store.Task, error) {
	task, err := s.store.GetTask(ctx, ownerID, id)
	return task, ownedOrNotFound(err, "Task")
}

func (s *Service) ListTasks(ctx context.Context, ownerID int64, page store.Page) ([]store.Task, error) {
	return s.store.ListTasks(ctx, ownerID, page)
}

func (s *Service) UpdateTask(ctx context.Context, ownerID, id int64, patch TaskPatch) (store.Task, error) {
	task, err := s.GetTask(ctx, ownerID, id)
	if err != nil {
		return store.Task{}, err
	}
	patch.apply(&task)
	updated, err := s.store.UpdateTask(ctx, task)
	if err != nil {
		return store.Task{}, ownedOrNotFound(err, "Task")
	}
	s.index.Index(ctx, search.TaskRecord(updated))
	return updated, nil
}

func (s *Service) DeleteTask(ctx context.Context, ownerID, id int64) error {
	if err := s.store.DeleteTask(ctx, ownerID, id); err != nil {
		return ownedOrNotFound(err, "Task")
	}
	s.index.Delete(ctx, search.ResultTask, id)
	return nil
}

func (s *Service) CreateRisk(ctx context.Context, ownerID int64, input RiskInput) (store.Risk, error) {
	risk, err := s.store.CreateRisk(ctx, input.risk(ownerID))
	if err != nil {
		return store.Risk{}, err
	}
	s.index.Index(ctx, search.RiskRecord(risk))
	return risk, nil
}

func (s *Service) GetRisk(ctx context.Context, ownerID, id int64) (store.Risk, error) {
	risk, err := s.store.GetRisk(ctx, ownerID, id)
	return risk, ownedOrNotFound(err, "Risk")
}

func (s *Service) ListRisks(ctx context.Context, ownerID int64, page store.Page) ([]store.Risk, error) {
	return s.store.ListRisks(ctx, ownerID, page)
}

func (s *Service) UpdateRisk(ctx context.Context, ownerID, id int64, patch RiskPatch) (store.Risk, error) {
	risk, err := s.GetRisk(ctx, ownerID, id)
	if err != nil {
		return store.Risk{}, err
	}
	patch.apply(&risk)
	updated, err := s.store.UpdateRisk(ctx, risk)
	if err != nil {
		return store.Risk{}, ownedOrNotFound(err, "Risk")
	}
	s.index.Index(ctx, search.RiskRecord(updated))
	return updated, nil
}

func (s *Service) DeleteRisk(ctx context.Context, ownerID, id int64) error {
	if err := s.store.DeleteRisk(ctx, ownerID, id); err != nil {
		return ownedOrNotFound(err, "Risk")
	}
	s.index.Delete(ctx, search.ResultRisk, id)
	return nil
}

func (s *Service) CreateProject(ctx context.Context, ownerID int64, input ProjectInput) (store.Project, error) {
	project, err := s.store.CreateProject(ctx, input.project(ownerID))
	if err != nil {
		return store.Project{}, err
	}
	s.index.Index(ctx, search.ProjectRecord(project))
	return project, nil
}

func (s *Service) GetProject(ctx context.Context, ownerID, id int64) (store.Project, error) {
	project, err := s.store.GetProject(ctx, ownerID, id)
	return project, ownedOrNotFound(err, "Project")
}

func (s *Service) ListProjects(ctx context.Context, ownerID int64, page store.Page) ([]store.Project, error) {
	return s.store.ListProjects(ctx, ownerID, page)
}

func (s *Service) UpdateProject(ctx context.Context, ownerID, id int64, patch ProjectPatch) (store.Project, error) {
	project, err := s.GetProject(ctx, ownerID, id)
	if err != nil {
		return store.Project{}, err
	}
	patch.apply(&project)
	updated, err := s.store.UpdateProject(ctx, project)
	if err != nil {
		return store.Project{}, ownedOrNotFound(err, "Project")
	}
	s.index.Index(ctx, search.ProjectRecord(updated))
	return updated, nil
}

func (s *Service) DeleteProject(ctx context.Context, ownerID, id int64) error {
	if err := s.store.DeleteProject(ctx, ownerID, id); err != nil {
		return ownedOrNotFound(err, "Project")
	}
	s.index.Delete(ctx, search.ResultProject, id)
	return nil
}

func (s *Service) CreatePost(ctx context.Context, userID int64, input PostInput) (store.Post, error) {
	if err := s.checkPostProject(ctx, userID, input.ProjectID); err != nil {
		return store.Post{}, err
	}
	post, err := s.store.CreatePost(ctx, input.post(userID))
	if err != nil {
		return store.Post{}, err
	}
	s.index.Index(ctx, search.PostRecord(post))
	return post, nil
}

func (s *Service) GetPost(ctx context.Context, userID, id int64) (store.Post, error) {
	post, err := s.store.GetPost(ctx, userID, id)
	return post, ownedOrNotFound(err, "Post")
}

func (s *Service) ListPosts(ctx context.Context, userID int64, page store.Page) ([]store.Post, error) {
	return s.store.ListPosts(ctx, userID, page)
}

func (s *Service) UpdatePost(ctx context.Context, userID, id int64, patch PostPatch) (store.Post, error) {
	post, err := s.GetPost(ctx, userID, id)
	if err != nil {
		return store.Post{}, err
	}
	if err := s.checkPostProject(ctx, userID, patch.ProjectID.Value); err != nil {
		return store.Post{}, err
	}
	patch.apply(&post)
	updated, err := s.store.UpdatePost(ctx, post)
	if err != nil {
		return store.Post{}, ownedOrNotFound(err, "Post")
	}
	s.index.Index(ctx, search.PostRecord(updated))
	return updated, nil
}

func (s *Service) DeletePost(ctx context.Context, userID, id int64) error {
	if err := s.store.DeletePost(ctx, userID, id); err != nil {
		return ownedOrNotFound(err, "Post")
	}
	s.index.Delete(ctx, search.ResultPost, id)
	return nil
}

// checkPostProject rejects a post pointing at a project the caller does not own.
func (s *Service) checkPostProject(ctx context.Context, userID int64, projectID *int64) error {
	if projectID == nil {
		return nil
	}
	_, err := s.store.GetProject(ctx, userID, *projectID)
	return ownedOrNotFound(err, "Project")
}

func (s *Service) RecordEngagement(ctx context.Context, userID int64, input EngagementInput) (store.EngagementMetric, error) {
	metric := store.EngagementMetric{
		UserID:         userID,
		MetricType:     strings.TrimSpace(input.MetricType),
		MetricValue:    input.MetricValue,
		MetricMetadata: input.MetricMetadata,
	}
	if input.RecordedAt != nil {
		metric.RecordedAt = *input.RecordedAt
	}
	return s.store.CreateEngagementMetric(ctx, metric)
}

func (s *Service) ListEngagement(ctx context.Context, userID int64, metricType string, page store.Page) ([]store.EngagementMetric, error) {
	return s.store.ListEngagementMetrics(ctx, userID, metricType, page)
}
