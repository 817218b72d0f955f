package models

import (
	"fmt"
	"strings"
)

// Role identifies a worker type on the crew.
type Role string

const (
	// RoleManager coordinates the crew and is the only role allowed to delegate.
	RoleManager Role = "manager"
	// RoleAnalyzer finds bugs and code issues.
	RoleAnalyzer Role = "analyzer"
	// RoleImplementer builds features and fixes.
	RoleImplementer Role = "implementer"
	// RoleSecuritySpecialist reviews security-sensitive code.
	RoleSecuritySpecialist Role = "security_specialist"
	// RoleDatabaseArchitect designs schemas, migrations and data APIs.
	RoleDatabaseArchitect Role = "database_architect"
	// RoleQATester writes tests and checks quality.
	RoleQATester Role = "qa_tester"
	// RoleUIDesigner builds UI components.
	RoleUIDesigner Role = "ui_designer"
)

var allRoles = []Role{
	RoleManager,
	RoleAnalyzer,
	RoleImplementer,
	RoleSecuritySpecialist,
	RoleDatabaseArchitect,
	RoleQATester,
	RoleUIDesigner,
}

// AllRoles returns every declared role, manager first.
func AllRoles() []Role {
	return append([]Role(nil), allRoles...)
}

// Specialists returns every role except the manager.
func Specialists() []Role {
	return append([]Role(nil), allRoles[1:]...)
}

// Valid returns true if the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleAnalyzer, RoleImplementer, RoleSecuritySpecialist,
		RoleDatabaseArchitect, RoleQATester, RoleUIDesigner:
		return true
	default:
		return false
	}
}

// IsManager reports whether r is the coordinating role.
func (r Role) IsManager() bool {
	return r == RoleManager
}

// Title returns the human-facing job title for the role.
func (r Role) Title() string {
	switch r {
	case RoleManager:
		return "Project Manager"
	case RoleAnalyzer:
		return "Code Analyzer"
	case RoleImplementer:
		return "Code Implementer"
	case RoleSecuritySpecialist:
		return "Security Specialist"
	case RoleDatabaseArchitect:
		return "Database Architect"
	case RoleQATester:
		return "QA Tester"
	case RoleUIDesigner:
		return "UI Designer"
	default:
		return string(r)
	}
}

// ParseRole normalizes s ("QA Tester", "qa-tester", "qa_tester") into a Role.
func ParseRole(s string) (Role, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	r := Role(norm)
	if r.Valid() {
		return r, nil
	}
	for _, candidate := range allRoles {
		if strings.EqualFold(candidate.Title(), strings.TrimSpace(s)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}
