package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleTeacher    UserRole = "TEACHER"
	RoleStudent    UserRole = "STUDENT"
)

// JWTClaims represents the session payload. The tenant is resolved from it.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	SchoolID string   `json:"school_id"`
	CampusID *string  `json:"campus_id,omitempty"`
	jwt.RegisteredClaims
}

// Scope returns the tenant scope carried by the session.
func (c *JWTClaims) Scope() TenantScope {
	if c == nil {
		return TenantScope{}
	}
	return TenantScope{SchoolID: c.SchoolID}.WithCampus(c.CampusID)
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
