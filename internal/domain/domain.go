package domain

import "time"

type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusAddressed Status = "addressed"
	StatusDeclined  Status = "declined"
	StatusCompleted Status = "completed"
	StatusClosed    Status = "closed"
	StatusStopped   Status = "stopped"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions leave s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusClosed, StatusStopped, StatusCancelled:
		return true
	}
	return false
}

// Role is the capability set of a caller.
type Role string

const (
	RoleSAS      Role = "sas"
	RoleBroker   Role = "broker"
	RoleReviewer Role = "reviewer"
	RolePublic   Role = "public"
)

// Document authors stamped from the submitting role.
const (
	AuthorMonitoringOwner = "monitoring_owner"
	AuthorTenderOwner     = "tender_owner"
)

var ViolationTypes = []string{
	"corruptionDescription",
	"corruptionProcurementMethodType",
	"corruptionPublicDisclosure",
	"corruptionBiddingDocuments",
	"documentsForm",
	"corruptionAwarded",
	"corruptionCancelled",
	"corruptionContracting",
	"corruptionChanges",
	"other",
}

var ResolutionResults = []string{"eliminated", "not_eliminated", "partly", "completely"}

var ResolutionTypeResults = []string{"eliminated", "not_eliminated", "no_mechanism"}

type Period struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

type Document struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Hash          string    `json:"hash,omitempty"`
	Format        string    `json:"format"`
	Author        string    `json:"author"`
	DatePublished time.Time `json:"datePublished"`
	DateModified  time.Time `json:"dateModified"`
}

type Decision struct {
	Description   string     `json:"description"`
	Date          *time.Time `json:"date,omitempty"`
	DatePublished *time.Time `json:"datePublished,omitempty"`
	Documents     []Document `json:"documents,omitempty"`
}

type Conclusion struct {
	Description       string     `json:"description,omitempty"`
	ViolationOccurred bool       `json:"violationOccurred"`
	ViolationType     []string   `json:"violationType,omitempty"`
	DatePublished     *time.Time `json:"datePublished,omitempty"`
	Documents         []Document `json:"documents,omitempty"`
}

type Cancellation struct {
	Description   string     `json:"description"`
	DatePublished *time.Time `json:"datePublished,omitempty"`
}

type Party struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Roles []string `json:"roles,omitempty"`
}

type EliminationReport struct {
	Description   string     `json:"description"`
	Author        string     `json:"author"`
	Documents     []Document `json:"documents,omitempty"`
	DateCreated   time.Time  `json:"dateCreated"`
	DatePublished time.Time  `json:"datePublished"`
	DateModified  time.Time  `json:"dateModified"`
}

type EliminationResolution struct {
	Result       string            `json:"result"`
	ResultByType map[string]string `json:"resultByType"`
	Description  string            `json:"description,omitempty"`
	Documents    []Document        `json:"documents,omitempty"`
	RelatedParty string            `json:"relatedParty,omitempty"`
	DateCreated  time.Time         `json:"dateCreated"`
}

type Monitoring struct {
	ID                    string                 `json:"id"`
	TenderID              string                 `json:"tender_id"`
	Status                Status                 `json:"status"`
	Reasons               []string               `json:"reasons,omitempty"`
	ProcuringStages       []string               `json:"procuringStages,omitempty"`
	RiskIndicators        []string               `json:"riskIndicators,omitempty"`
	MonitoringDetails     string                 `json:"monitoringDetails,omitempty"`
	Decision              *Decision              `json:"decision,omitempty"`
	MonitoringPeriod      *Period                `json:"monitoringPeriod,omitempty"`
	EndDate               *time.Time             `json:"endDate,omitempty"`
	Conclusion            *Conclusion            `json:"conclusion,omitempty"`
	EliminationPeriod     *Period                `json:"eliminationPeriod,omitempty"`
	EliminationReport     *EliminationReport     `json:"eliminationReport,omitempty"`
	EliminationResolution *EliminationResolution `json:"eliminationResolution,omitempty"`
	Cancellation          *Cancellation          `json:"cancellation,omitempty"`
	Parties               []Party                `json:"parties,omitempty"`
	DateCreated           time.Time              `json:"dateCreated"`
	DateModified          time.Time              `json:"dateModified"`

	// Kept in dedicated columns and never serialised to clients.
	TenderOwner          string `json:"-"`
	TenderOwnerTokenHash string `json:"-"`
}

// Party returns the party with id, if any.
func (m Monitoring) Party(id string) (Party, bool) {
	for _, p := range m.Parties {
		if p.ID == id {
			return p, true
		}
	}
	return Party{}, false
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Role      Role   `json:"role"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
