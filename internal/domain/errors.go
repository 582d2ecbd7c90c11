package domain

import (
	"errors"
	"fmt"
	"strings"
)

// UnsupportedModelError is returned by Setup when the requested model is not
// part of the supported chat-completion model set.
type UnsupportedModelError struct {
	Model string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("unsupported ChatGPT model %q, allowed values: %s",
		e.Model, strings.Join(SupportedModelNames(), ", "))
}

// MissingCredentialError is returned by Forward when no credential provider
// yields an API key. Sources lists the providers that were consulted in order.
type MissingCredentialError struct {
	Sources []string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("no OpenAI API key found (checked: %s); %s",
		strings.Join(e.Sources, ", "), CredentialHint)
}

// CredentialHint tells operators how to configure the API key.
const CredentialHint = "set third_party.OPENAI_KEY in the config file or export the OPENAI_KEY environment variable"

// SchemaError reports an input batch that does not match the UDF input signature.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return "batch does not match input signature: " + e.Reason
}

// IsConfigurationError reports whether err is a fatal configuration error
// (unsupported model or missing credential).
func IsConfigurationError(err error) bool {
	var modelErr *UnsupportedModelError
	var credErr *MissingCredentialError
	return errors.As(err, &modelErr) || errors.As(err, &credErr)
}

// IsSchemaError reports whether err is a SchemaError.
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}
