package config

import (
	"github.com/spf13/viper"

	"github.com/hpn/hpn-chatgpt-udf/internal/domain"
)

// Section and key of the OpenAI credential in the configuration store.
const (
	SectionThirdParty = "third_party"
	KeyOpenAIKey      = "OPENAI_KEY"
)

// Store is a layered (section, key) lookup over the loaded configuration.
// Values are read on each call, so environment overrides set after startup
// are observed.
type Store struct {
	v *viper.Viper
}

// NewStore wraps a configured viper instance.
func NewStore(v *viper.Viper) *Store {
	return &Store{v: v}
}

// GetValue returns the string value at section.key, or "" when unset.
func (s *Store) GetValue(section, key string) string {
	if s == nil || s.v == nil {
		return ""
	}
	return s.v.GetString(section + "." + key)
}

// Credential exposes section.key as a named credential provider.
func (s *Store) Credential(section, key string) domain.CredentialProvider {
	return domain.CredentialFunc{
		Source: "config:" + section + "." + key,
		Lookup: func() string { return s.GetValue(section, key) },
	}
}

// OpenAICredentials returns the credential chain used by the ChatGPT UDF:
// the config store first, then the OPENAI_KEY environment variable.
func (s *Store) OpenAICredentials() domain.CredentialChain {
	return domain.NewCredentialChain(
		s.Credential(SectionThirdParty, KeyOpenAIKey),
		domain.EnvCredential(KeyOpenAIKey),
	)
}
