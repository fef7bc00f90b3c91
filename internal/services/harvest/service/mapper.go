package service

import (
	gh "verifiedorgs/internal/adapters/github"
	"verifiedorgs/internal/services/harvest/domain"
)

// recordFrom copies the persisted fields of a verified document unchanged
func recordFrom(org gh.Organization) domain.OrganizationRecord {
	return domain.OrganizationRecord{
		Login:                   org.Login,
		ID:                      org.ID,
		Name:                    org.Name,
		Company:                 org.Company,
		Blog:                    org.Blog,
		Email:                   org.Email,
		TwitterUsername:         org.TwitterUsername,
		IsVerified:              org.IsVerified != nil && *org.IsVerified,
		HasOrganizationProjects: org.HasOrganizationProjects,
		HasRepositoryProjects:   org.HasRepositoryProjects,
		PublicRepos:             org.PublicRepos,
		PublicGists:             org.PublicGists,
		HTMLURL:                 org.HTMLURL,
		CreatedAt:               org.CreatedAt,
		UpdatedAt:               org.UpdatedAt,
		Type:                    org.Type,
	}
}
