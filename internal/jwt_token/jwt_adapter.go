package jwttoken

import (
	id "idgraph/pkg/domain"
	authmw "idgraph/pkg/platform/middleware/auth"
)

// JWTServiceAdapter exposes JWTService as the auth middleware's validator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	// ValidateToken has already checked the tenant claim.
	tenantID, _ := id.ParseTenantID(claims.TenantID)
	return &authmw.JWTClaims{
		TenantID: tenantID,
		Subject:  claims.Subject,
		JTI:      claims.ID,
	}, nil
}
