package domain

// ContactExtractionResult holds contact details recovered from a profile page.
type ContactExtractionResult struct {
	Email              string   `json:"email,omitempty"`
	Phone              string   `json:"phone,omitempty"`
	Website            string   `json:"website,omitempty"`
	LinkedIn           string   `json:"linkedin,omitempty"`
	Twitter            string   `json:"twitter,omitempty"`
	OfficeAddress      string   `json:"office_address,omitempty"`
	Department         string   `json:"department,omitempty"`
	AdditionalContacts []string `json:"additional_contacts,omitempty"`
}

// HasAny reports whether at least one contact detail was found.
func (c ContactExtractionResult) HasAny() bool {
	return c.Email != "" || c.Phone != "" || c.Website != "" || c.LinkedIn != "" ||
		c.Twitter != "" || c.OfficeAddress != "" || c.Department != "" ||
		len(c.AdditionalContacts) > 0
}

// ContactStatus is the terminal state of a contact lookup.
type ContactStatus string

const (
	ContactStatusCompleted   ContactStatus = "completed"
	ContactStatusFailed      ContactStatus = "failed"
	ContactStatusTimedOut    ContactStatus = "timed_out"
	ContactStatusUnavailable ContactStatus = "unavailable"
)

// ContactOutcome is the result of a contact lookup.
// Result is nil unless Status is completed; a completed lookup that found
// nothing carries a non-nil Result for which HasAny is false.
type ContactOutcome struct {
	Status    ContactStatus            `json:"status"`
	Result    *ContactExtractionResult `json:"result,omitempty"`
	TaskID    string                   `json:"task_id,omitempty"`
	Message   string                   `json:"message,omitempty"`
	Retryable bool                     `json:"retryable"`
}
