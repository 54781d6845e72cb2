package main

import (
	"context"
	"fmt"
	"time"

	"jerrygfit/api/internal/domain"
	"jerrygfit/api/internal/store"
)

type seedStore interface {
	ListUsers(ctx context.Context, page store.Page) ([]store.User, error)
	CreateUser(ctx context.Context, user store.User) (store.User, error)
	CreateProject(ctx context.Context, project store.Project) (store.Project, error)
	CreateTask(ctx context.Context, task store.Task) (store.Task, error)
	CreateRisk(ctx context.Context, risk store.Risk) (store.Risk, error)
	CreatePost(ctx context.Context, post store.Post) (store.Post, error)
	CreateEngagementMetric(ctx context.Context, metric store.EngagementMetric) (store.EngagementMetric, error)
}

type passwordHasher interface {
	Hash(password string) (string, error)
}

var demoUsers = []store.User{
	{Email: "jerry@jerrygfit.com", Username: "jerrygfit", FullName: "Jerry Thompson", Role: domain.RoleAdmin},
	{Email: "sarah@jerrygfit.com", Username: "sarahfit", FullName: "Sarah Martinez", Role: domain.RoleCreator},
	{Email: "mike@jerrygfit.com", Username: "mikewellness", FullName: "Mike Chen", Role: domain.RoleCoach},
	{Email: "alex@client.com", Username: "alexviewer", FullName: "Alex Johnson", Role: domain.RoleUser},
}

// seedDemo loads the demo accounts and gives the creator account a project
// with tasks, risks, posts and engagement numbers. It does nothing and
// returns 0 when any user exists.
func seedDemo(ctx context.Context, s seedStore, hasher passwordHasher, password string) (int, error) {
	existing, err := s.ListUsers(ctx, store.Page{Limit: 1})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return 0, err
	}

	var creator store.User
	for _, user := range demoUsers {
		user.PasswordHash = hash
		user.IsActive = true
		user.NotificationPreferences = map[string]any{"email": true, "push": user.Role != domain.RoleUser, "sms": false}
		user.UserPreferences = map[string]any{"theme": "dark", "language": "en"}
		created, err := s.CreateUser(ctx, user)
		if err != nil {
			return 0, fmt.Errorf("seed user %s: %w", user.Username, err)
		}
		if created.Role == domain.RoleCreator {
			creator = created
		}
	}

	if err := seedCreatorContent(ctx, s, creator.ID, time.Now().UTC()); err != nil {
		return 0, err
	}
	return len(demoUsers), nil
}

func seedCreatorContent(ctx context.Context, s seedStore, ownerID int64, now time.Time) error {
	due := now.AddDate(0, 1, 0)
	project, err := s.CreateProject(ctx, store.Project{
		OwnerID:     ownerID,
		Name:        "Summer Shred Challenge",
		Description: "Eight-week program launch with daily content and community check-ins",
		Status:      domain.ProjectActive,
		Progress:    35,
		DueDate:     &due,
	})
	if err != nil {
		return fmt.Errorf("seed project: %w", err)
	}

	tasks := []store.Task{
		{Title: "Film week 1 workout videos", Status: domain.TaskDone, Priority: domain.PriorityHigh, Completed: true},
		{Title: "Write meal plan guide", Status: domain.TaskInProgress, Priority: domain.PriorityHigh},
		{Title: "Design challenge landing page", Status: domain.TaskTodo, Priority: domain.PriorityMedium},
		{Title: "Schedule launch posts", Status: domain.TaskTodo, Priority: domain.PriorityUrgent},
		{Title: "Book gym for group shoot", Status: domain.TaskBlocked, Priority: domain.PriorityLow},
	}
	for _, task := range tasks {
		task.OwnerID = ownerID
		if _, err := s.CreateTask(ctx, task); err != nil {
			return fmt.Errorf("seed task: %w", err)
		}
	}

	risks := []store.Risk{
		{Title: "Filming schedule slips", Severity: domain.LevelHigh, Probability: domain.ProbabilityMedium, Impact: domain.LevelHigh,
			Status: domain.RiskOpen, MitigationPlan: "Batch-record two weeks ahead"},
		{Title: "Low sign-up conversion", Severity: domain.LevelMedium, Probability: domain.ProbabilityMedium, Impact: domain.LevelMedium,
			Status: domain.RiskOpen, MitigationPlan: "A/B test the landing page headline"},
		{Title: "Creator injury", Severity: domain.LevelCritical, Probability: domain.ProbabilityLow, Impact: domain.LevelCritical,
			Status: domain.RiskMitigated, MitigationPlan: "Guest coaches on standby"},
	}
	for _, risk := range risks {
		risk.OwnerID = ownerID
		if _, err := s.CreateRisk(ctx, risk); err != nil {
			return fmt.Errorf("seed risk: %w", err)
		}
	}

	published := now.AddDate(0, 0, -3)
	posts := []store.Post{
		{Title: "Challenge announcement", Content: "Eight weeks. One goal.", Hashtags: "#SummerShred #Fitness",
			Likes: 1240, Comments: 88, Shares: 41, EngagementRate: 6.4, PublishedAt: &published},
		{Title: "Week 1 preview", Content: "Here is what day one looks like.", Hashtags: "#WorkoutPlan",
			Likes: 860, Comments: 52, Shares: 19, EngagementRate: 4.9},
	}
	for _, post := range posts {
		post.UserID = ownerID
		post.ProjectID = &project.ID
		if _, err := s.CreatePost(ctx, post); err != nil {
			return fmt.Errorf("seed post: %w", err)
		}
	}

	for day := 6; day >= 0; day-- {
		metric := store.EngagementMetric{
			UserID:      ownerID,
			MetricType:  "followers",
			MetricValue: float64(12000 + (6-day)*150),
			RecordedAt:  now.AddDate(0, 0, -day),
		}
		if _, err := s.CreateEngagementMetric(ctx, metric); err != nil {
			return fmt.Errorf("seed engagement: %w", err)
		}
	}
	return nil
}
