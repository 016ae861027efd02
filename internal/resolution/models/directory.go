package models

import (
	"time"

	id "idgraph/pkg/domain"
)

// Person is tenant-scoped reference data created upstream.
// Email is the matching key; the resolution pipeline never mutates persons.
type Person struct {
	ID         id.PersonID `json:"id"`
	TenantID   id.TenantID `json:"tenant_id"`
	Email      string      `json:"email"`
	Name       string      `json:"name,omitempty"`
	JobTitle   string      `json:"job_title,omitempty"`
	LastSeenAt time.Time   `json:"last_seen_at"`
}

// Company is tenant-scoped reference data created upstream.
// Domain is the matching key.
type Company struct {
	ID         id.CompanyID `json:"id"`
	TenantID   id.TenantID  `json:"tenant_id"`
	Domain     string       `json:"domain"`
	Name       string       `json:"name,omitempty"`
	Industry   string       `json:"industry,omitempty"`
	LastSeenAt time.Time    `json:"last_seen_at"`
}
