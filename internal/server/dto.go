package server

import (
	"auditline/internal/domain"
	"auditline/internal/engine"
)

// Request and response bodies are wrapped in a "data" member.

type CreateMonitoringRequest struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Data engine.CreateMonitoringInput `json:"data"`
}

type PatchMonitoringRequest struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Data engine.MonitoringPatch `json:"data"`
}

type PartyRequest struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Data engine.PartyInput `json:"data"`
}

type EliminationReportRequest struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Data   engine.EliminationReportInput `json:"data"`
	Access *AccessToken                  `json:"access,omitempty"`
}

type DocumentRequest struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Data   engine.DocumentInput `json:"data"`
	Access *AccessToken         `json:"access,omitempty"`
}

type ResolutionRequest struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Data engine.ResolutionInput `json:"data"`
}

type MonitoringResponse struct {
	Data domain.Monitoring `json:"data"`
}

// MonitoringRef is a feed entry.
type MonitoringRef struct {
	ID           string        `json:"id"`
	TenderID     string        `json:"tender_id"`
	Status       domain.Status `json:"status"`
	DateModified string        `json:"dateModified" format:"date-time"`
}

type NextPage struct {
	Offset string `json:"offset"`
	Path   string `json:"path"`
}

type MonitoringListResponse struct {
	Data     []MonitoringRef `json:"data"`
	NextPage *NextPage       `json:"next_page,omitempty"`
}

type PartyResponse struct {
	Data domain.Party `json:"data"`
}

type EliminationReportResponse struct {
	Data domain.EliminationReport `json:"data"`
}

type DocumentResponse struct {
	Data domain.Document `json:"data"`
}

type ResolutionResponse struct {
	Data domain.EliminationResolution `json:"data"`
}

type AccessToken struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Token string `json:"token"`
}

type CredentialsResponse struct {
	Data   domain.Monitoring `json:"data"`
	Access AccessToken       `json:"access"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

func monitoringRefs(items []domain.Monitoring) []MonitoringRef {
	res := make([]MonitoringRef, 0, len(items))
	for _, m := range items {
		res = append(res, MonitoringRef{
			ID:           m.ID,
			TenderID:     m.TenderID,
			Status:       m.Status,
			DateModified: m.DateModified.Format("2006-01-02T15:04:05.999999Z07:00"),
		})
	}
	return res
}
