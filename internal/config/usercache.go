package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jbeckham/jira-issue-editor/internal/jira"
)

// UserCacheTTL is how long users.json is trusted before a refetch.
const UserCacheTTL = 24 * time.Hour

// CachedUser is the minimal user data stored in the cache file.
type CachedUser struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"emailAddress,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// UserCachePath returns the path to the user cache file inside dir.
func UserCachePath(dir string) string {
	return filepath.Join(dir, "users.json")
}

// LoadUserCache reads the user cache file. It returns nil, nil when the
// file does not exist or is older than UserCacheTTL.
func LoadUserCache(dir string) ([]CachedUser, error) {
	path := UserCachePath(dir)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // cache miss, not an error
		}
		return nil, fmt.Errorf("reading user cache: %w", err)
	}
	if time.Since(info.ModTime()) > UserCacheTTL {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading user cache: %w", err)
	}

	var users []CachedUser
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("parsing user cache: %w", err)
	}
	return users, nil
}

// SaveUserCache writes user data to the cache file.
func SaveUserCache(dir string, users []CachedUser) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling user cache: %w", err)
	}
	if err := os.WriteFile(UserCachePath(dir), data, 0o644); err != nil {
		return fmt.Errorf("writing user cache: %w", err)
	}
	return nil
}

// CachedUsersFrom converts API users for the cache.
func CachedUsersFrom(users []jira.User) []CachedUser {
	out := make([]CachedUser, 0, len(users))
	for _, u := range users {
		out = append(out, CachedUser{
			AccountID:   u.AccountID,
			DisplayName: u.DisplayName,
			Email:       u.Email,
			AvatarURL:   u.AvatarURLs["24x24"],
		})
	}
	return out
}

// JiraUsers converts cached users back into API users.
func JiraUsers(cached []CachedUser) []jira.User {
	out := make([]jira.User, 0, len(cached))
	for _, c := range cached {
		u := jira.User{AccountID: c.AccountID, DisplayName: c.DisplayName, Email: c.Email, Active: true}
		if c.AvatarURL != "" {
			u.AvatarURLs = map[string]string{"24x24": c.AvatarURL}
		}
		out = append(out, u)
	}
	return out
}
