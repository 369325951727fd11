package entity

// Profile is the identity delivered by the external identity provider on sign-in
type Profile struct {
	Provider string
	ID       string
	Subject  string
	Email    string
	Name     string
	Image    string
}

// NormalizedEmail returns the merge key for this profile
func (p Profile) NormalizedEmail() string {
	return NormalizeEmail(p.Email)
}

// SubjectID returns the provider subject: the opaque id, else the subject claim, else the email
func (p Profile) SubjectID() string {
	switch {
	case p.ID != "":
		return p.ID
	case p.Subject != "":
		return p.Subject
	default:
		return p.NormalizedEmail()
	}
}

// ProviderName returns the provider, defaulting to DefaultProvider
func (p Profile) ProviderName() string {
	if p.Provider == "" {
		return DefaultProvider
	}
	return p.Provider
}
