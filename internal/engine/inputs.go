package engine

import (
	"time"

	"auditline/internal/domain"
)

// Input fields are all optional on the wire; presence rules depend on the
// monitoring state and are enforced by the engine. Unknown properties, such as
// the server managed dates, are accepted and ignored.

type DocumentInput struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Title  string `json:"title,omitempty" validate:"required,max=500"`
	URL    string `json:"url,omitempty" validate:"required,url"`
	Hash   string `json:"hash,omitempty" validate:"required,startswith=md5:,len=36"`
	Format string `json:"format,omitempty" validate:"required"`
}

type DecisionInput struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Description string          `json:"description,omitempty" validate:"required"`
	Date        *time.Time      `json:"date,omitempty"`
	Documents   []DocumentInput `json:"documents,omitempty" validate:"dive"`
}

type ConclusionInput struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Description       string          `json:"description,omitempty"`
	ViolationOccurred *bool           `json:"violationOccurred,omitempty" validate:"required"`
	ViolationType     []string        `json:"violationType,omitempty" validate:"omitempty,unique,dive,oneof=corruptionDescription corruptionProcurementMethodType corruptionPublicDisclosure corruptionBiddingDocuments documentsForm corruptionAwarded corruptionCancelled corruptionContracting corruptionChanges other"`
	Documents         []DocumentInput `json:"documents,omitempty" validate:"dive"`
}

type CancellationInput struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Description string `json:"description,omitempty" validate:"required"`
}

type ResolutionInput struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Result       string            `json:"result,omitempty" validate:"required,oneof=eliminated not_eliminated partly completely"`
	ResultByType map[string]string `json:"resultByType,omitempty" validate:"required,dive,oneof=eliminated not_eliminated no_mechanism"`
	Description  string            `json:"description,omitempty"`
	RelatedParty string            `json:"relatedParty,omitempty"`
	Documents    []DocumentInput   `json:"documents,omitempty" validate:"dive"`
}

type PartyInput struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Name  string   `json:"name,omitempty" validate:"required,max=500"`
	Roles []string `json:"roles,omitempty" validate:"omitempty,dive,oneof=sas buyer supplier"`
}

// MonitoringPatch is a partial update; nil fields are left untouched.
type MonitoringPatch struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Status                *domain.Status     `json:"status,omitempty"`
	Decision              *DecisionInput     `json:"decision,omitempty"`
	Conclusion            *ConclusionInput   `json:"conclusion,omitempty"`
	Cancellation          *CancellationInput `json:"cancellation,omitempty"`
	EliminationResolution *ResolutionInput   `json:"eliminationResolution,omitempty"`
	Reasons               []string           `json:"reasons,omitempty"`
	ProcuringStages       []string           `json:"procuringStages,omitempty"`
	RiskIndicators        []string           `json:"riskIndicators,omitempty"`
	MonitoringDetails     *string            `json:"monitoringDetails,omitempty"`
}

type CreateMonitoringInput struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	TenderID          string         `json:"tender_id,omitempty" validate:"required,len=32,hexadecimal"`
	Reasons           []string       `json:"reasons,omitempty" validate:"required,dive,oneof=indicator authorities media fiscal public"`
	ProcuringStages   []string       `json:"procuringStages,omitempty" validate:"required,dive,oneof=planning awarding contracting"`
	RiskIndicators    []string       `json:"riskIndicators,omitempty"`
	MonitoringDetails string         `json:"monitoringDetails,omitempty"`
	Decision          *DecisionInput `json:"decision,omitempty"`
	Parties           []PartyInput   `json:"parties,omitempty" validate:"dive"`
}

type EliminationReportInput struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Description string          `json:"description,omitempty" validate:"required"`
	Documents   []DocumentInput `json:"documents,omitempty" validate:"dive"`
}
