package app

import (
	"context"
	"slices"
	"strings"

	"jerrygfit/api/internal/analytics"
	"jerrygfit/api/internal/export"
	"jerrygfit/api/internal/search"
	"jerrygfit/api/internal/store"
)

const (
	searchDefaultLimit = 20
	searchMaxLimit     = 100
)

// Analytics aggregates the caller's tasks, risks and AI usage. Data access
// failures surface as 503.
func (s *Service) Analytics(ctx context.Context, userID int64) (analytics.Report, error) {
	tasks, risks, err := s.taskAndRiskRows(ctx, userID)
	if err != nil {
		return analytics.Report{}, err
	}
	count, err := s.store.CountAIRequests(ctx, userID)
	if err != nil {
		return analytics.Report{}, serviceUnavailable(err)
	}
	return analytics.Compute(s.now(), tasks, risks, count), nil
}

func (s *Service) taskAndRiskRows(ctx context.Context, userID int64) ([]store.Task, []store.Risk, error) {
	tasks, err := s.store.ListTasks(ctx, userID, store.Page{})
	if err != nil {
		return nil, nil, serviceUnavailable(err)
	}
	risks, err := s.store.ListRisks(ctx, userID, store.Page{})
	if err != nil {
		return nil, nil, serviceUnavailable(err)
	}
	return tasks, risks, nil
}

// ExportReport renders the analytics report with the caller's rows.
func (s *Service) ExportReport(ctx context.Context, session Session, format export.Format) (*export.Result, error) {
	tasks, risks, err := s.taskAndRiskRows(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	count, err := s.store.CountAIRequests(ctx, session.UserID)
	if err != nil {
		return nil, serviceUnavailable(err)
	}
	projects, err := s.store.ListProjects(ctx, session.UserID, store.Page{})
	if err != nil {
		return nil, serviceUnavailable(err)
	}

	now := s.now()
	return s.exporter.Export(ctx, format, export.ReportData{
		UserName:    session.UserName,
		GeneratedAt: now,
		Analytics:   analytics.Compute(now, tasks, risks, count),
		Tasks:       tasks,
		Risks:       risks,
		Projects:    projects,
	})
}

// Search runs a text query over the caller's own content.
func (s *Service) Search(ctx context.Context, userID int64, text, kind string, limit, offset int) (search.Response, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return search.Response{}, validationError("Validation failed", map[string]string{"q": "q is a required field"})
	}
	filter := search.ResultType(strings.ToLower(strings.TrimSpace(kind)))
	if filter != "" && !slices.Contains(search.ResultTypes, filter) {
		return search.Response{}, validationError("Validation failed", map[string]string{"type": "type must be one of task, risk, project, post"})
	}
	if limit <= 0 {
		limit = searchDefaultLimit
	}
	if limit > searchMaxLimit {
		limit = searchMaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	return s.index.Search(ctx, search.Query{
		Text:       text,
		OwnerID:    userID,
		FilterType: filter,
		Limit:      limit,
		Offset:     offset,
	}), nil
}
