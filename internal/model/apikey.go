package model

import "time"

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// APIKey is a tenant application's ingestion credential.
type APIKey struct {
	ID          int64      `json:"id"`
	Key         string     `json:"-"`
	Preview     string     `json:"preview"`
	AppID       string     `json:"appId"`
	AppName     string     `json:"appName"`
	Environment string     `json:"environment"`
	IsActive    bool       `json:"isActive"`
	RateLimit   int        `json:"rateLimit"`
	Owner       string     `json:"owner,omitempty"`
	WebhookURL  string     `json:"webhookUrl,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastUsedAt  *time.Time `json:"lastUsedAt,omitempty"`
}

// AppMeta is the tenant partition stamped onto ingested issues.
type AppMeta struct {
	AppID       string `json:"appId"`
	AppName     string `json:"appName"`
	Environment string `json:"environment"`
}

// DefaultRateLimit returns the hourly issue quota for a new key.
func DefaultRateLimit(environment string) int {
	switch environment {
	case EnvDevelopment:
		return 5000
	case EnvStaging:
		return 2000
	default:
		return 1000
	}
}

func ValidEnvironment(environment string) bool {
	switch environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
		return true
	}
	return false
}
