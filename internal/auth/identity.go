package auth

// Identity represents a normalized external authentication identity
// returned by a federated provider. It contains facts only, no decisions.
type Identity struct {
	Provider       string // "google", "apple", "facebook"
	ProviderUserID string // provider-scoped unique user identifier (sub)
	Email          string // email returned by provider
	EmailVerified  bool   // whether provider asserts email ownership
}
