package dto

// CompanyRef identifies one company to a mining module.
type CompanyRef struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
}

// AffinityTriggerPayload is the body the affinity mining module expects:
// the full company list plus whatever extra parameters the source carries.
type AffinityTriggerPayload struct {
	Companies []CompanyRef           `json:"companies"`
	Params    map[string]interface{} `json:"params,omitempty"`
}

// GithubTriggerPayload asks the github mining module to crawl the listed
// organizations.
type GithubTriggerPayload struct {
	Organizations []string `json:"organizations"`
}
