package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"idgraph/internal/resolution/models"
	id "idgraph/pkg/domain"
)

// seedFile is the startup fixture format. IDs are generated when omitted.
type seedFile struct {
	Persons []struct {
		ID       string `json:"id"`
		TenantID string `json:"tenant_id"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		JobTitle string `json:"job_title"`
	} `json:"persons"`
	Companies []struct {
		ID       string `json:"id"`
		TenantID string `json:"tenant_id"`
		Domain   string `json:"domain"`
		Name     string `json:"name"`
		Industry string `json:"industry"`
	} `json:"companies"`
	// IPIntel maps an address or CIDR prefix to a company domain.
	IPIntel map[string]string `json:"ip_intel"`
}

var errSeedNeedsMemory = errors.New("persons and companies can only be seeded with memory storage")

func (a *app) seed(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("decode seed file: %w", err)
	}
	if (len(f.Persons) > 0 || len(f.Companies) > 0) && a.memDirectory == nil {
		return errSeedNeedsMemory
	}

	now := time.Now().UTC()
	for i, p := range f.Persons {
		tenantID, err := id.ParseTenantID(p.TenantID)
		if err != nil {
			return fmt.Errorf("persons[%d]: %w", i, err)
		}
		personID := id.PersonID(uuid.New())
		if p.ID != "" {
			if personID, err = id.ParsePersonID(p.ID); err != nil {
				return fmt.Errorf("persons[%d]: %w", i, err)
			}
		}
		a.memDirectory.SeedPerson(models.Person{
			ID: personID, TenantID: tenantID, Email: p.Email,
			Name: p.Name, JobTitle: p.JobTitle, LastSeenAt: now,
		})
	}
	for i, c := range f.Companies {
		tenantID, err := id.ParseTenantID(c.TenantID)
		if err != nil {
			return fmt.Errorf("companies[%d]: %w", i, err)
		}
		companyID := id.CompanyID(uuid.New())
		if c.ID != "" {
			if companyID, err = id.ParseCompanyID(c.ID); err != nil {
				return fmt.Errorf("companies[%d]: %w", i, err)
			}
		}
		a.memDirectory.SeedCompany(models.Company{
			ID: companyID, TenantID: tenantID, Domain: c.Domain,
			Name: c.Name, Industry: c.Industry, LastSeenAt: now,
		})
		if a.companyCache != nil {
			if err := a.companyCache.Invalidate(ctx, tenantID, c.Domain); err != nil {
				a.logger.WarnContext(ctx, "directory cache invalidation failed",
					"tenant_id", tenantID.String(),
					"domain", c.Domain,
					"error", err,
				)
			}
		}
	}
	for key, domain := range f.IPIntel {
		if err := a.intel.Put(ctx, key, domain); err != nil {
			return fmt.Errorf("ip_intel %q: %w", key, err)
		}
	}

	a.logger.InfoContext(ctx, "seed loaded",
		"persons", len(f.Persons),
		"companies", len(f.Companies),
		"ip_intel", len(f.IPIntel),
	)
	return nil
}
