package certificates

import (
	"strings"

	"certify-backend/internal/shared/auth"
)

// RetrievalScope controls whether students may read other students' certificates.
type RetrievalScope string

const (
	ScopeOwn RetrievalScope = "own"
	ScopeAny RetrievalScope = "any"
)

// ParseScope maps a config value to a scope, defaulting to ScopeOwn.
func ParseScope(raw string) RetrievalScope {
	if strings.EqualFold(strings.TrimSpace(raw), string(ScopeAny)) {
		return ScopeAny
	}
	return ScopeOwn
}

// canRead: owners and reviewers always; other students only under ScopeAny.
func canRead(scope RetrievalScope, cert Certificate, p auth.Principal) bool {
	if p.ID == "" {
		return false
	}
	if cert.OwnerID == p.ID || p.IsReviewer() {
		return true
	}
	return scope == ScopeAny
}

func canDelete(cert Certificate, p auth.Principal) bool {
	return p.ID != "" && cert.OwnerID == p.ID
}
