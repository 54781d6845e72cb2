package store

import (
	"time"

	"jerrygfit/api/internal/domain"
)

type User struct {
	ID                      int64
	Email                   string
	Username                string
	PasswordHash            string
	FullName                string
	IsActive                bool
	IsSuperuser             bool
	Role                    domain.UserRole
	ProfilePicture          string
	NotificationPreferences map[string]any
	UserPreferences         map[string]any
	GoogleID                string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// DisplayName is the name shown on reports and tokens.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

type Task struct {
	ID          int64
	OwnerID     int64
	Title       string
	Description string
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
	DueDate     *time.Time
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

type Risk struct {
	ID             int64
	OwnerID        int64
	Title          string
	Description    string
	Severity       domain.Level
	Probability    domain.Probability
	Impact         domain.Level
	Status         domain.RiskStatus
	MitigationPlan string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Project struct {
	ID          int64
	OwnerID     int64
	Name        string
	Description string
	Status      domain.ProjectStatus
	Progress    float64
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Post struct {
	ID             int64
	UserID         int64
	ProjectID      *int64
	Title          string
	Content        string
	Caption        string
	Hashtags       string
	Likes          int
	Comments       int
	Shares         int
	EngagementRate float64
	PublishedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type AIRequest struct {
	ID          int64
	UserID      int64
	RequestType string
	Prompt      string
	// Response is the raw JSON document persisted with the request.
	Response   []byte
	TokensUsed int
	CreatedAt  time.Time
}

type EngagementMetric struct {
	ID             int64
	UserID         int64
	MetricType     string
	MetricValue    float64
	MetricMetadata string
	RecordedAt     time.Time
}

// Page bounds list queries. Limit <= 0 means no limit.
type Page struct {
	Skip  int
	Limit int
}
