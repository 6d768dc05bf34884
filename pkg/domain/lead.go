package domain

// LeadType identifies the entry surface that produced a lead.
type LeadType string

const (
	LeadTypeQuote     LeadType = "quote"
	LeadTypeSiteVisit LeadType = "site_visit"
)

// Valid reports whether t is one of the known lead types.
func (t LeadType) Valid() bool {
	return t == LeadTypeQuote || t == LeadTypeSiteVisit
}

// LeadPayload is the body of POST /api/leads.
type LeadPayload struct {
	Name         string   `json:"name"`
	Phone        string   `json:"phone"`
	Email        *string  `json:"email"`
	City         *string  `json:"city"`
	LeadType     LeadType `json:"lead_type"`
	ProjectType  string   `json:"project_type"`
	Measurements string   `json:"measurements"`
	Preferences  string   `json:"preferences"`
	Message      string   `json:"message"`
}
