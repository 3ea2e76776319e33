package domain

import "time"

// Owner is the account that owns a repository.
type Owner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

// Repository is a GitHub repository as returned by search and listing.
type Repository struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	HTMLURL     string    `json:"html_url"`
	Description string    `json:"description,omitempty"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	Language    string    `json:"language,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	Owner       Owner     `json:"owner"`
}

// User is a GitHub account as returned by user search.
// Counts are only populated by endpoints that return full profiles.
type User struct {
	ID          int64  `json:"id"`
	Login       string `json:"login"`
	AvatarURL   string `json:"avatar_url"`
	HTMLURL     string `json:"html_url"`
	Type        string `json:"type"`
	SiteAdmin   bool   `json:"site_admin"`
	Followers   int    `json:"followers,omitempty"`
	Following   int    `json:"following,omitempty"`
	PublicRepos int    `json:"public_repos,omitempty"`
}

// AuthenticatedUser is the profile of the signed-in account.
type AuthenticatedUser struct {
	User
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	Company   string    `json:"company,omitempty"`
	Blog      string    `json:"blog,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Page is one page of results from a paginated endpoint.
type Page[T any] struct {
	Items      []T
	TotalCount int
}

// RateQuota is the API allowance last reported by GitHub for one resource.
type RateQuota struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}
