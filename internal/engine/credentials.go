package engine

import (
	"context"
	"errors"
	"time"

	"auditline/internal/domain"
	"auditline/internal/engine/auth"
	"auditline/internal/events"
	"auditline/internal/tenders"
)

// GenerateCredentials exchanges the tender owner's access token for a
// monitoring token. The tenders API returns the SHA-512 digest of the tender
// token; accToken must hash to it. The returned token is stored only as a
// digest and replaces any previously issued one.
func (e Engine) GenerateCredentials(ctx context.Context, id string, p auth.Principal, accToken string) (domain.Monitoring, string, error) {
	const op = "generate_credentials"
	if err := e.Auth.Authorize(p, auth.ResourceCredentials, auth.ActionPatch); err != nil {
		return domain.Monitoring{}, "", e.reject(op, err)
	}
	m, err := e.load(ctx, op, id)
	if err != nil {
		return domain.Monitoring{}, "", err
	}
	if e.Tenders == nil {
		return domain.Monitoring{}, "", e.reject(op, &Error{Kind: KindUpstream, Location: "body", Name: "data", Description: "Tenders API is not configured."})
	}
	creds, err := e.Tenders.ExtractCredentials(ctx, m.TenderID)
	if err != nil {
		if errors.Is(err, tenders.ErrNotFound) {
			return domain.Monitoring{}, "", e.reject(op, invalid("tender_id", "Tender not found."))
		}
		return domain.Monitoring{}, "", e.reject(op, &Error{Kind: KindUpstream, Location: "body", Name: "data", Description: "Tenders API is unavailable.", Err: err})
	}
	if !auth.TokenMatches(accToken, creds.TenderToken) {
		return domain.Monitoring{}, "", e.reject(op, forbiddenURL("permission", "Forbidden"))
	}

	token := newID()
	m, err = e.mutate(ctx, op, id, p, func(m *domain.Monitoring, _ time.Time) (change, error) {
		m.TenderOwner = p.ActorID
		m.TenderOwnerTokenHash = auth.HashToken(token)
		return change{Event: events.CredentialsGenerated, Payload: events.EventPayload{"owner": p.ActorID}}, nil
	})
	if err != nil {
		return domain.Monitoring{}, "", err
	}
	return m, token, nil
}
