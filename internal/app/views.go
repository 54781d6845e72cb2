package app

import (
	"encoding/json"
	"time"

	"jerrygfit/api/internal/domain"
	"jerrygfit/api/internal/store"
)

// JSON shapes returned to clients. Store rows never serialize directly so the
// password hash and google id cannot leak.

type UserView struct {
	ID                      int64           `json:"id"`
	Email                   string          `json:"email"`
	Username                string          `json:"username"`
	FullName                *string         `json:"full_name"`
	IsActive                bool            `json:"is_active"`
	IsSuperuser             bool            `json:"is_superuser"`
	Role                    domain.UserRole `json:"role"`
	ProfilePicture          *string         `json:"profile_picture"`
	NotificationPreferences map[string]any  `json:"notification_preferences"`
	UserPreferences         map[string]any  `json:"user_preferences"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

type TaskView struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	Description *string             `json:"description"`
	Status      domain.TaskStatus   `json:"status"`
	Priority    domain.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	Completed   bool                `json:"completed"`
	OwnerID     int64               `json:"owner_id"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   *time.Time          `json:"updated_at"`
}

type RiskView struct {
	ID             int64              `json:"id"`
	Title          string             `json:"title"`
	Description    *string            `json:"description"`
	Severity       domain.Level       `json:"severity"`
	Probability    domain.Probability `json:"probability"`
	Impact         domain.Level       `json:"impact"`
	Status         domain.RiskStatus  `json:"status"`
	MitigationPlan *string            `json:"mitigation_plan"`
	OwnerID        int64              `json:"owner_id"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

type ProjectView struct {
	ID          int64                `json:"id"`
	Name        string               `json:"name"`
	Description *string              `json:"description"`
	Status      domain.ProjectStatus `json:"status"`
	Progress    float64              `json:"progress"`
	DueDate     *time.Time           `json:"due_date"`
	OwnerID     int64                `json:"owner_id"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

type PostView struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	Caption        *string    `json:"caption"`
	Hashtags       *string    `json:"hashtags"`
	Likes          int        `json:"likes"`
	Comments       int        `json:"comments"`
	Shares         int        `json:"shares"`
	EngagementRate float64    `json:"engagement_rate"`
	ProjectID      *int64     `json:"project_id"`
	PublishedAt    *time.Time `json:"published_at"`
	UserID         int64      `json:"user_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type EngagementView struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	MetricType     string    `json:"metric_type"`
	MetricValue    float64   `json:"metric_value"`
	MetricMetadata *string   `json:"metric_metadata"`
	RecordedAt     time.Time `json:"recorded_at"`
}

type AIRequestView struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	RequestType string          `json:"request_type"`
	Prompt      string          `json:"prompt"`
	Response    json.RawMessage `json:"response"`
	TokensUsed  int             `json:"tokens_used"`
	CreatedAt   time.Time       `json:"created_at"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// UserDataExport is the account download returned by GET /users/me/export.
type UserDataExport struct {
	User       UserView        `json:"user"`
	Tasks      []TaskView      `json:"tasks"`
	Risks      []RiskView      `json:"risks"`
	Projects   []ProjectView   `json:"projects"`
	Posts      []PostView      `json:"posts"`
	AIRequests []AIRequestView `json:"ai_requests"`
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func userView(u store.User) UserView {
	return UserView{
		ID:                      u.ID,
		Email:                   u.Email,
		Username:                u.Username,
		FullName:                optional(u.FullName),
		IsActive:                u.IsActive,
		IsSuperuser:             u.IsSuperuser,
		Role:                    u.Role,
		ProfilePicture:          optional(u.ProfilePicture),
		NotificationPreferences: u.NotificationPreferences,
		UserPreferences:         u.UserPreferences,
		CreatedAt:               u.CreatedAt,
		UpdatedAt:               u.UpdatedAt,
	}
}

func taskView(t store.Task) TaskView {
	return TaskView{
		ID:          t.ID,
		Title:       t.Title,
		Description: optional(t.Description),
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		Completed:   t.Completed,
		OwnerID:     t.OwnerID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func riskView(r store.Risk) RiskView {
	return RiskView{
		ID:             r.ID,
		Title:          r.Title,
		Description:    optional(r.Description),
		Severity:       r.Severity,
		Probability:    r.Probability,
		Impact:         r.Impact,
		Status:         r.Status,
		MitigationPlan: optional(r.MitigationPlan),
		OwnerID:        r.OwnerID,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func projectView(p store.Project) ProjectView {
	return ProjectView{
		ID:          p.ID,
		Name:        p.Name,
		Description: optional(p.Description),
		Status:      p.Status,
		Progress:    p.Progress,
		DueDate:     p.DueDate,
		OwnerID:     p.OwnerID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func postView(p store.Post) PostView {
	return PostView{
		ID:             p.ID,
		Title:          p.Title,
		Content:        p.Content,
		Caption:        optional(p.Caption),
		Hashtags:       optional(p.Hashtags),
		Likes:          p.Likes,
		Comments:       p.Comments,
		Shares:         p.Shares,
		EngagementRate: p.EngagementRate,
		ProjectID:      p.ProjectID,
		PublishedAt:    p.PublishedAt,
		UserID:         p.UserID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func engagementView(m store.EngagementMetric) EngagementView {
	return EngagementView{
		ID:             m.ID,
		UserID:         m.UserID,
		MetricType:     m.MetricType,
		MetricValue:    m.MetricValue,
		MetricMetadata: optional(m.MetricMetadata),
		RecordedAt:     m.RecordedAt,
	}
}

func aiRequestView(a store.AIRequest) AIRequestView {
	response := json.RawMessage(a.Response)
	if len(response) == 0 {
		response = json.RawMessage("null")
	}
	return AIRequestView{
		ID:          a.ID,
		UserID:      a.UserID,
		RequestType: a.RequestType,
		Prompt:      a.Prompt,
		Response:    response,
		TokensUsed:  a.TokensUsed,
		CreatedAt:   a.CreatedAt,
	}
}

func mapViews[T, V any](rows []T, view func(T) V) []V {
	out := make([]V, 0, len(rows))
	for _, row := range rows {
		out = append(out, view(row))
	}
	return out
}
