package dto

import "github.com/surya021104/bug-tracker/internal/model"

type GenerateReportRequest struct {
	PlainTextDescription string `json:"plainTextDescription"`
}

type GenerateReportResponse struct {
	Report *model.BugReport `json:"report"`
}
