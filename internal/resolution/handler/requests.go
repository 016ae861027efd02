package handler

import (
	"strings"

	"idgraph/internal/resolution/models"
	id "idgraph/pkg/domain"
	dErrors "idgraph/pkg/domain-errors"
)

// OverrideRequest is the HTTP request body for a manual override.
type OverrideRequest struct {
	SourceEventID string `json:"source_event_id"`
	PersonID      string `json:"person_id,omitempty"`
	CompanyID     string `json:"company_id,omitempty"`

	// Parsed values (populated by Validate)
	sourceEventID id.SourceEventID
	personID      *id.PersonID
	companyID     *id.CompanyID
}

// Validate parses the identifiers. Implements httputil.Validatable.
func (r *OverrideRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	eventID, err := id.ParseSourceEventID(r.SourceEventID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "source_event_id is invalid")
	}
	r.sourceEventID = eventID

	if v := strings.TrimSpace(r.PersonID); v != "" {
		pid, err := id.ParsePersonID(v)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeValidation, "person_id is invalid")
		}
		r.personID = &pid
	}
	if v := strings.TrimSpace(r.CompanyID); v != "" {
		cid, err := id.ParseCompanyID(v)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeValidation, "company_id is invalid")
		}
		r.companyID = &cid
	}

	if r.personID == nil && r.companyID == nil {
		return dErrors.New(dErrors.CodeValidation, "person_id or company_id is required")
	}
	return nil
}

// ToModel builds the service request. Call after Validate.
func (r *OverrideRequest) ToModel(tenantID id.TenantID, visitorID id.VisitorID, actor string) models.OverrideRequest {
	return models.OverrideRequest{
		TenantID:      tenantID,
		VisitorID:     visitorID,
		SourceEventID: r.sourceEventID,
		PersonID:      r.personID,
		CompanyID:     r.companyID,
		Actor:         actor,
	}
}
