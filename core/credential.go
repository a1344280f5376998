package core

// CredentialKind discriminates the two credential variants. The wire payload
// must carry the tag explicitly; it is never inferred from field shape.
type CredentialKind string

const (
	CredentialPassword CredentialKind = "credentials"
	CredentialCookie   CredentialKind = "cookie"
)

// CredentialMeta carries optional connection metadata shared by both variants.
type CredentialMeta struct {
	Country          string
	UserAgent        string
	DisabledFeatures []string
}

// Credential is one of PasswordCredential or CookieCredential.
type Credential interface {
	Kind() CredentialKind
}

// PasswordCredential authenticates with an identifier and secret.
type PasswordCredential struct {
	Identifier string
	Secret     string
	Meta       CredentialMeta
}

func (PasswordCredential) Kind() CredentialKind { return CredentialPassword }

// CookieCredential authenticates with pre-obtained provider session tokens.
// AccessToken is the primary session token; PremiumToken is optional.
type CookieCredential struct {
	AccessToken  string
	PremiumToken string
	Meta         CredentialMeta
}

func (CookieCredential) Kind() CredentialKind { return CredentialCookie }
