package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"jerrygfit/api/internal/authpw"
	"jerrygfit/api/internal/search"
	"jerrygfit/api/internal/storage"
	"jerrygfit/api/internal/store"
)

func (s *Service) CurrentUser(ctx context.Context, userID int64) (store.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// UpdateProfile applies the fields present in input. A new password is hashed
// before it is stored.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, input UserUpdateInput) (store.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return store.User{}, err
	}

	if input.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Username != nil {
		user.Username = strings.TrimSpace(*input.Username)
	}
	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.ProfilePicture != nil {
		user.ProfilePicture = *input.ProfilePicture
	}
	if input.NotificationPreferences != nil {
		user.NotificationPreferences = input.NotificationPreferences
	}
	if input.UserPreferences != nil {
		user.UserPreferences = input.UserPreferences
	}
	if input.Password != nil {
		hash, err := s.passwords.Hash(*input.Password)
		if err != nil {
			return store.User{}, err
		}
		user.PasswordHash = hash
	}

	updated, err := s.store.UpdateUser(ctx, user)
	if store.IsUniqueViolation(err) {
		return store.User{}, domainError(http.StatusBadRequest, "PROFILE_CONFLICT", "Email or username already in use", nil)
	}
	return updated, err
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, input PasswordChangeInput) error {
	err := s.passwords.ChangePassword(ctx, userID, input.CurrentPassword, input.NewPassword)
	if errors.Is(err, authpw.ErrInvalidCredentials) {
		return domainError(http.StatusBadRequest, "INVALID_PASSWORD", "Current password is incorrect", nil)
	}
	return err
}

// UploadAvatar stores the image in object storage and points the profile at it.
func (s *Service) UploadAvatar(ctx context.Context, userID int64, contentType string, body io.Reader, size int64) (store.User, error) {
	if s.avatars == nil {
		return store.User{}, storage.ErrNotConfigured
	}
	if _, err := storage.AvatarKey(userID, contentType, size); err != nil {
		return store.User{}, err
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return store.User{}, err
	}
	url, err := s.avatars.UploadAvatar(ctx, userID, contentType, body, size)
	if err != nil {
		return store.User{}, fmt.Errorf("upload avatar: %w", err)
	}
	user.ProfilePicture = url
	return s.store.UpdateUser(ctx, user)
}

// ExportUserData collects everything stored for the account.
func (s *Service) ExportUserData(ctx context.Context, userID int64) (UserDataExport, error) {
	all := store.Page{}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return UserDataExport{}, err
	}
	tasks, err := s.store.ListTasks(ctx, userID, all)
	if err != nil {
		return UserDataExport{}, err
	}
	risks, err := s.store.ListRisks(ctx, userID, all)
	if err != nil {
		return UserDataExport{}, err
	}
	projects, err := s.store.ListProjects(ctx, userID, all)
	if err != nil {
		return UserDataExport{}, err
	}
	posts, err := s.store.ListPosts(ctx, userID, all)
	if err != nil {
		return UserDataExport{}, err
	}
	requests, err := s.store.ListAIRequests(ctx, userID, all)
	if err != nil {
		return UserDataExport{}, err
	}

	return UserDataExport{
		User:       userView(user),
		Tasks:      mapViews(tasks, taskView),
		Risks:      mapViews(risks, riskView),
		Projects:   mapViews(projects, projectView),
		Posts:      mapViews(posts, postView),
		AIRequests: mapViews(requests, aiRequestView),
	}, nil
}

// DeleteAccount removes the user and all owned rows in one transaction, then
// revokes the current access token and drops the user's search records.
func (s *Service) DeleteAccount(ctx context.Context, session Session) error {
	records, err := s.ownedSearchKeys(ctx, session.UserID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteUserCascade(ctx, session.UserID); err != nil {
		return err
	}
	if err := s.sessions.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt); err != nil {
		s.log.Warn().Err(err).Int64("user_id", session.UserID).Msg("revoke access token after delete")
	}
	for _, key := range records {
		s.index.Delete(ctx, key.kind, key.id)
	}
	return nil
}

type searchKey struct {
	kind search.ResultType
	id   int64
}

func (s *Service) ownedSearchKeys(ctx context.Context, userID int64) ([]searchKey, error) {
	all := store.Page{}
	var keys []searchKey
	tasks, err := s.store.ListTasks(ctx, userID, all)
	if err != nil {
		return nil, err
	}
	for _, task := range tasks {
		keys = append(keys, searchKey{search.ResultTask, task.ID})
	}
	risks, err := s.store.ListRisks(ctx, userID, all)
	if err != nil {
		return nil, err
	}
	for _, risk := range risks {
		keys = append(keys, searchKey{search.ResultRisk, risk.ID})
	}
	projects, err := s.store.ListProjects(ctx, userID, all)
	if err != nil {
		return nil, err
	}
	for _, project := range projects {
		keys = append(keys, searchKey{search.ResultProject, project.ID})
	}
	posts, err := s.store.ListPosts(ctx, userID, all)
	if err != nil {
		return nil, err
	}
	for _, post := range posts {
		keys = append(keys, searchKey{search.ResultPost, post.ID})
	}
	return keys, nil
}

func (s *Service) ListUsers(ctx context.Context, page store.Page) ([]store.User, error) {
	return s.store.ListUsers(ctx, page)
}
