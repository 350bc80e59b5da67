package dto

import "time"

type GenerateKeyRequest struct {
	AppName     string `json:"appName"`
	Environment string `json:"environment"`
	RateLimit   int    `json:"rateLimit" binding:"omitempty,min=0"`
	Owner       string `json:"owner"`
	WebhookURL  string `json:"webhookUrl" binding:"omitempty,url"`
}

// GenerateKeyResponse is the only response that carries the full key.
type GenerateKeyResponse struct {
	Success     bool      `json:"success"`
	APIKey      string    `json:"apiKey"`
	Preview     string    `json:"apiKeyPreview"`
	AppName     string    `json:"appName"`
	AppID       string    `json:"appId"`
	Environment string    `json:"environment"`
	RateLimit   int       `json:"rateLimit"`
	CreatedAt   time.Time `json:"createdAt"`
	Message     string    `json:"message"`
}

type ToggleKeyResponse struct {
	Success  bool   `json:"success"`
	IsActive bool   `json:"isActive"`
	Message  string `json:"message"`
}
