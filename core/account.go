package core

import "time"

// Source describes one provider data source attached to a linked account.
type Source struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// LinkedAccount is the record of a provider account linked to a user.
// Session tokens obtained during authentication are held in ConnectionParams;
// they never leave the service through the read API.
type LinkedAccount struct {
	ID               string
	OwnerID          string
	Name             string
	Provider         string
	CreatedAt        time.Time
	ConnectionParams map[string]string
	Sources          []Source
	Groups           []string
}
