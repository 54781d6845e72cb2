package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"jerrygfit/api/internal/domain"
)

func migratedStore(t *testing.T) *PostgresStore {
	t.Helper()
	db := testDatabase(t)
	if err := ApplyMigrations(context.Background(), db, MigrationSource("")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return NewPostgresStore(db)
}

func TestTaskOwnershipIsolation(t *testing.T) {
	s := migratedStore(t)
	ctx := context.Background()

	owner, err := s.CreateUser(ctx, User{Email: "owner@example.com", Username: "owner", IsActive: true})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	other, err := s.CreateUser(ctx, User{Email: "other@example.com", Username: "other", IsActive: true})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	task, err := s.CreateTask(ctx, Task{OwnerID: owner.ID, Title: "Film squat tutorial", Status: domain.TaskTodo, Priority: domain.PriorityHigh})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	if _, err := s.GetTask(ctx, other.ID, task.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("GetTask(other) error = %v, want sql.ErrNoRows", err)
	}
	task.OwnerID = other.ID
	if _, err := s.UpdateTask(ctx, task); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("UpdateTask(other) error = %v, want sql.ErrNoRows", err)
	}
	if err := s.DeleteTask(ctx, other.ID, task.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("DeleteTask(other) error = %v, want sql.ErrNoRows", err)
	}

	got, err := s.GetTask(ctx, owner.ID, task.ID)
	if err != nil {
		t.Fatalf("GetTask(owner) error = %v", err)
	}
	if got.Title != "Film squat tutorial" || got.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected task: %+v", got)
	}
}

func TestDeleteUserCascadeRemovesOwnedRows(t *testing.T) {
	s := migratedStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, User{Email: "gone@example.com", Username: "gone", IsActive: true})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	project, err := s.CreateProject(ctx, Project{OwnerID: user.ID, Name: "Summer shred", Status: domain.ProjectActive})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if _, err := s.CreatePost(ctx, Post{UserID: user.ID, ProjectID: &project.ID, Title: "Day 1", Content: "Leg day"}); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	if _, err := s.CreateAIRequest(ctx, AIRequest{UserID: user.ID, RequestType: "caption", Prompt: "leg day"}); err != nil {
		t.Fatalf("CreateAIRequest() error = %v", err)
	}

	if err := s.DeleteUserCascade(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUserCascade() error = %v", err)
	}
	if _, err := s.GetUserByID(ctx, user.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("GetUserByID() error = %v, want sql.ErrNoRows", err)
	}
	if err := s.DeleteUserCascade(ctx, user.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("DeleteUserCascade(missing) error = %v, want sql.ErrNoRows", err)
	}
}

func TestConsumeRefreshSessionIsSingleUse(t *testing.T) {
	s := migratedStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, User{Email: "rotate@example.com", Username: "rotate", IsActive: true})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if err := s.SaveRefreshSession(ctx, "hash-rotate", user.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession() error = %v", err)
	}

	userID, err := s.ConsumeRefreshSession(ctx, "hash-rotate")
	if err != nil || userID != user.ID {
		t.Fatalf("ConsumeRefreshSession() = %d, %v", userID, err)
	}
	if _, err := s.ConsumeRefreshSession(ctx, "hash-rotate"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("ConsumeRefreshSession(again) error = %v, want sql.ErrNoRows", err)
	}
}
