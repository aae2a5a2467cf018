package user

import "researchPortalAPI/internal/metadata"

// Details are the editable profile fields shared by the profile editor, the
// onboarding form and the admin user editor.
type Details struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Company        string `json:"company"`
	JobTitle       string `json:"jobTitle"`
	University     string `json:"university"`
	Qualification  string `json:"qualification"`
	GraduationYear string `json:"graduationYear"`
	Address1       string `json:"address1"`
	City           string `json:"city"`
	State          string `json:"state"`
	Country        string `json:"country"`
	PostCode       string `json:"postCode"`
}

// Metadata returns the metadata part of the details.
func (d Details) Metadata() metadata.Metadata {
	return metadata.Metadata{
		Company:        d.Company,
		JobTitle:       d.JobTitle,
		University:     d.University,
		Qualification:  d.Qualification,
		GraduationYear: d.GraduationYear,
		Address: metadata.Address{
			Address1: d.Address1,
			City:     d.City,
			State:    d.State,
			Country:  d.Country,
			PostCode: d.PostCode,
		},
	}
}

type UpdateProfileRequest struct {
	Details
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
}

type OnboardingRequest struct {
	Details
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
}

type AdminUpdateUserRequest struct {
	Details
	TenantID string `json:"tenantId"`
}

type SignUpRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
