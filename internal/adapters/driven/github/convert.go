package github

import (
	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/gitscope/internal/core/domain"
)

func toRepository(r *gh.Repository) domain.Repository {
	if r == nil {
		return domain.Repository{}
	}
	owner := r.GetOwner()
	return domain.Repository{
		ID:          r.GetID(),
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		HTMLURL:     r.GetHTMLURL(),
		Description: r.GetDescription(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		Language:    r.GetLanguage(),
		UpdatedAt:   r.GetUpdatedAt().Time,
		CreatedAt:   r.GetCreatedAt().Time,
		Owner: domain.Owner{
			Login:     owner.GetLogin(),
			AvatarURL: owner.GetAvatarURL(),
			HTMLURL:   owner.GetHTMLURL(),
		},
	}
}

func toUser(u *gh.User) domain.User {
	if u == nil {
		return domain.User{}
	}
	return domain.User{
		ID:          u.GetID(),
		Login:       u.GetLogin(),
		AvatarURL:   u.GetAvatarURL(),
		HTMLURL:     u.GetHTMLURL(),
		Type:        u.GetType(),
		SiteAdmin:   u.GetSiteAdmin(),
		Followers:   u.GetFollowers(),
		Following:   u.GetFollowing(),
		PublicRepos: u.GetPublicRepos(),
	}
}

func toAuthenticatedUser(u *gh.User) *domain.AuthenticatedUser {
	return &domain.AuthenticatedUser{
		User:      toUser(u),
		Name:      u.GetName(),
		Email:     u.GetEmail(),
		Bio:       u.GetBio(),
		Company:   u.GetCompany(),
		Blog:      u.GetBlog(),
		Location:  u.GetLocation(),
		CreatedAt: u.GetCreatedAt().Time,
	}
}
