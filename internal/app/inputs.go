package app

import (
	"bytes"
	"encoding/json"
	"time"

	"jerrygfit/api/internal/domain"
	"jerrygfit/api/internal/store"
)

// Request bodies. Update inputs use pointer fields: a nil field was absent
// from the body and leaves the stored value unchanged. Columns that may be
// cleared use Nullable so an explicit null is told apart from absence.

// Nullable records whether a JSON field was present. Set with a nil Value
// means the body sent null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	n.Value = &value
	return nil
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"max=255"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type UserUpdateInput struct {
	Email                   *string        `json:"email" validate:"omitnil,email"`
	Username                *string        `json:"username" validate:"omitnil,min=1,max=100"`
	FullName                *string        `json:"full_name" validate:"omitnil,max=255"`
	Password                *string        `json:"password" validate:"omitnil,min=8"`
	ProfilePicture          *string        `json:"profile_picture"`
	NotificationPreferences map[string]any `json:"notification_preferences"`
	UserPreferences         map[string]any `json:"user_preferences"`
}

type PasswordChangeInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type TaskInput struct {
	Title       string              `json:"title" validate:"required,max=255"`
	Description string              `json:"description"`
	Status      domain.TaskStatus   `json:"status"`
	Priority    domain.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	Completed   *bool               `json:"completed"`
}

type TaskPatch struct {
	Title       *string              `json:"title" validate:"omitnil,min=1,max=255"`
	Description *string              `json:"description"`
	Status      *domain.TaskStatus   `json:"status"`
	Priority    *domain.TaskPriority `json:"priority"`
	DueDate     Nullable[time.Time]  `json:"due_date"`
	Completed   *bool                `json:"completed"`
}

type RiskInput struct {
	Title          string             `json:"title" validate:"required,max=255"`
	Description    string             `json:"description"`
	Severity       domain.Level       `json:"severity"`
	Probability    domain.Probability `json:"probability"`
	Impact         domain.Level       `json:"impact"`
	Status         domain.RiskStatus  `json:"status"`
	MitigationPlan string             `json:"mitigation_plan"`
}

type RiskPatch struct {
	Title          *string             `json:"title" validate:"omitnil,min=1,max=255"`
	Description    *string             `json:"description"`
	Severity       *domain.Level       `json:"severity"`
	Probability    *domain.Probability `json:"probability"`
	Impact         *domain.Level       `json:"impact"`
	Status         *domain.RiskStatus  `json:"status"`
	MitigationPlan *string             `json:"mitigation_plan"`
}

type ProjectInput struct {
	Name        string               `json:"name" validate:"required,max=255"`
	Description string               `json:"description"`
	Status      domain.ProjectStatus `json:"status"`
	Progress    float64              `json:"progress" validate:"gte=0,lte=100"`
	DueDate     *time.Time           `json:"due_date"`
}

type ProjectPatch struct {
	Name        *string               `json:"name" validate:"omitnil,min=1,max=255"`
	Description *string               `json:"description"`
	Status      *domain.ProjectStatus `json:"status"`
	Progress    *float64              `json:"progress" validate:"omitnil,gte=0,lte=100"`
	DueDate     Nullable[time.Time]   `json:"due_date"`
}

type PostInput struct {
	Title          string     `json:"title" validate:"required,max=255"`
	Content        string     `json:"content" validate:"required"`
	Caption        string     `json:"caption"`
	Hashtags       string     `json:"hashtags"`
	Likes          int        `json:"likes" validate:"gte=0"`
	Comments       int        `json:"comments" validate:"gte=0"`
	Shares         int        `json:"shares" validate:"gte=0"`
	EngagementRate float64    `json:"engagement_rate" validate:"gte=0"`
	ProjectID      *int64     `json:"project_id"`
	PublishedAt    *time.Time `json:"published_at"`
}

type PostPatch struct {
	Title          *string             `json:"title" validate:"omitnil,min=1,max=255"`
	Content        *string             `json:"content" validate:"omitnil,min=1"`
	Caption        *string             `json:"caption"`
	Hashtags       *string             `json:"hashtags"`
	Likes          *int                `json:"likes" validate:"omitnil,gte=0"`
	Comments       *int                `json:"comments" validate:"omitnil,gte=0"`
	Shares         *int                `json:"shares" validate:"omitnil,gte=0"`
	EngagementRate *float64            `json:"engagement_rate" validate:"omitnil,gte=0"`
	ProjectID      Nullable[int64]     `json:"project_id"`
	PublishedAt    Nullable[time.Time] `json:"published_at"`
}

type EngagementInput struct {
	MetricType     string     `json:"metric_type" validate:"required,max=100"`
	MetricValue    float64    `json:"metric_value"`
	MetricMetadata string     `json:"metric_metadata"`
	RecordedAt     *time.Time `json:"recorded_at"`
}

type GenerateInput struct {
	Prompt      string         `json:"prompt" validate:"required"`
	RequestType string         `json:"request_type" validate:"required,max=50"`
	Model       string         `json:"model"`
	Context     map[string]any `json:"context"`
}

func (in TaskInput) task(ownerID int64) store.Task {
	task := store.Task{
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
	}
	if task.Status == "" {
		task.Status = domain.TaskTodo
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	task.Completed = task.Status == domain.TaskDone
	if in.Completed != nil {
		task.Completed = *in.Completed
	}
	return task
}

// apply merges the patch into task. A status change drives completed unless
// the body sets completed itself.
func (p TaskPatch) apply(task *store.Task) {
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Description != nil {
		task.Description = *p.Description
	}
	if p.Priority != nil {
		task.Priority = *p.Priority
	}
	if p.DueDate.Set {
		task.DueDate = p.DueDate.Value
	}
	if p.Status != nil {
		task.Status = *p.Status
		task.Completed = *p.Status == domain.TaskDone
	}
	if p.Completed != nil {
		task.Completed = *p.Completed
	}
}

func (in RiskInput) risk(ownerID int64) store.Risk {
	risk := store.Risk{
		OwnerID:        ownerID,
		Title:          in.Title,
		Description:    in.Description,
		Severity:       in.Severity,
		Probability:    in.Probability,
		Impact:         in.Impact,
		Status:         in.Status,
		MitigationPlan: in.MitigationPlan,
	}
	if risk.Severity == "" {
		risk.Severity = domain.LevelMedium
	}
	if risk.Probability == "" {
		risk.Probability = domain.ProbabilityMedium
	}
	if risk.Impact == "" {
		risk.Impact = domain.LevelMedium
	}
	if risk.Status == "" {
		risk.Status = domain.RiskOpen
	}
	return risk
}

func (p RiskPatch) apply(risk *store.Risk) {
	if p.Title != nil {
		risk.Title = *p.Title
	}
	if p.Description != nil {
		risk.Description = *p.Description
	}
	if p.Severity != nil {
		risk.Severity = *p.Severity
	}
	if p.Probability != nil {
		risk.Probability = *p.Probability
	}
	if p.Impact != nil {
		risk.Impact = *p.Impact
	}
	if p.Status != nil {
		risk.Status = *p.Status
	}
	if p.MitigationPlan != nil {
		risk.MitigationPlan = *p.MitigationPlan
	}
}

func (in ProjectInput) project(ownerID int64) store.Project {
	project := store.Project{
		OwnerID:     ownerID,
		Name:        in.Name,
		Description: in.Description,
		Status:      in.Status,
		Progress:    in.Progress,
		DueDate:     in.DueDate,
	}
	if project.Status == "" {
		project.Status = domain.ProjectActive
	}
	return project
}

func (p ProjectPatch) apply(project *store.Project) {
	if p.Name != nil {
		project.Name = *p.Name
	}
	if p.Description != nil {
		project.Description = *p.Description
	}
	if p.Status != nil {
		project.Status = *p.Status
	}
	if p.Progress != nil {
		project.Progress = *p.Progress
	}
	if p.DueDate.Set {
		project.DueDate = p.DueDate.Value
	}
}

func (in PostInput) post(userID int64) store.Post {
	return store.Post{
		UserID:         userID,
		ProjectID:      in.ProjectID,
		Title:          in.Title,
		Content:        in.Content,
		Caption:        in.Caption,
		Hashtags:       in.Hashtags,
		Likes:          in.Likes,
		Comments:       in.Comments,
		Shares:         in.Shares,
		EngagementRate: in.EngagementRate,
		PublishedAt:    in.PublishedAt,
	}
}

func (p PostPatch) apply(post *store.Post) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.Caption != nil {
		post.Caption = *p.Caption
	}
	if p.Hashtags != nil {
		post.Hashtags = *p.Hashtags
	}
	if p.Likes != nil {
		post.Likes = *p.Likes
	}
	if p.Comments != nil {
		post.Comments = *p.Comments
	}
	if p.Shares != nil {
		post.Shares = *p.Shares
	}
	if p.EngagementRate != nil {
		post.EngagementRate = *p.EngagementRate
	}
	if p.ProjectID.Set {
		post.ProjectID = p.ProjectID.Value
	}
	if p.PublishedAt.Set {
		post.PublishedAt = p.PublishedAt.Value
	}
}
