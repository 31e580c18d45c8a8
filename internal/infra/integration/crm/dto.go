package crm

type contactRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	ExternalID  string `json:"external_id,omitempty"`
}

type dealRequest struct {
	Name       string            `json:"name"`
	Stage      string            `json:"stage"`
	Amount     float64           `json:"amount"`
	ContactID  string            `json:"contact_id,omitempty"`
	ExternalID string            `json:"external_id"`
	Tags       []string          `json:"tags,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

type idResponse struct {
	ID string `json:"id"`
}

type searchResponse struct {
	Results []idResponse `json:"results"`
}

type SystemConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	Stage   string `yaml:"stage"`
}
