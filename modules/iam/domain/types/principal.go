package types

// PrincipalRecord is the stored identity behind a request principal.
type PrincipalRecord struct {
	ID        string
	Email     string
	Superuser bool
	Status    string
}

const PrincipalStatusActive = "active"
