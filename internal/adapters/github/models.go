package github

// Organization is a partial GitHub organization document with the fields we persist.
// Nullable strings stay pointers; IsVerified is a pointer so an absent field is
// distinguishable from false
type Organization struct {
	Login                   string  `json:"login"`
	ID                      int64   `json:"id"`
	Name                    *string `json:"name"`
	Company                 *string `json:"company"`
	Blog                    *string `json:"blog"`
	Email                   *string `json:"email"`
	TwitterUsername         *string `json:"twitter_username"`
	IsVerified              *bool   `json:"is_verified"`
	HasOrganizationProjects bool    `json:"has_organization_projects"`
	HasRepositoryProjects   bool    `json:"has_repository_projects"`
	PublicRepos             int     `json:"public_repos"`
	PublicGists             int     `json:"public_gists"`
	HTMLURL                 string  `json:"html_url"`
	CreatedAt               string  `json:"created_at"`
	UpdatedAt               string  `json:"updated_at"`
	Type                    string  `json:"type"`

	// Raw is the undecoded response body
	Raw []byte `json:"-"`
}
