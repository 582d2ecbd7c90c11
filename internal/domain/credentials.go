package domain

import "os"

// CredentialProvider yields an API key from one source. An empty string means
// the source has no key.
type CredentialProvider interface {
	// Name identifies the source in logs and error messages. It never contains the key.
	Name() string

	// Credential returns the key currently held by the source.
	Credential() string
}

// EnvCredential reads the key from the named process environment variable.
type EnvCredential string

// Name returns "env:<VAR>".
func (e EnvCredential) Name() string {
	return "env:" + string(e)
}

// Credential returns the variable's current value.
func (e EnvCredential) Credential() string {
	return os.Getenv(string(e))
}

// CredentialFunc adapts a lookup function into a named CredentialProvider.
type CredentialFunc struct {
	Source string
	Lookup func() string
}

// Name returns the configured source name.
func (f CredentialFunc) Name() string {
	return f.Source
}

// Credential calls Lookup.
func (f CredentialFunc) Credential() string {
	if f.Lookup == nil {
		return ""
	}
	return f.Lookup()
}

// CredentialChain consults providers in order; the first non-empty key wins.
// Keys are looked up on every Resolve call and never retained by the chain.
type CredentialChain []CredentialProvider

// NewCredentialChain builds a chain, skipping nil providers.
func NewCredentialChain(providers ...CredentialProvider) CredentialChain {
	chain := make(CredentialChain, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			chain = append(chain, p)
		}
	}
	return chain
}

// Resolve returns the first non-empty key and the name of the provider that
// supplied it. It returns *MissingCredentialError when every provider is empty.
func (c CredentialChain) Resolve() (key string, source string, err error) {
	for _, p := range c {
		if k := p.Credential(); k != "" {
			return k, p.Name(), nil
		}
	}
	return "", "", &MissingCredentialError{Sources: c.Sources()}
}

// Sources returns the provider names in lookup order.
func (c CredentialChain) Sources() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name()
	}
	return names
}
