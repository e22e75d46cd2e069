package auth

import "context"

// Identity travels through the request context under private keys so other
// packages cannot forge it.
type contextKey string

const (
	contextKeyTenant  contextKey = "auth.tenant_id"
	contextKeyRole    contextKey = "auth.role"
	contextKeySubject contextKey = "auth.subject"
)

// WithIdentity attaches the authenticated tenant, role, and subject to ctx.
func WithIdentity(ctx context.Context, tenantID string, role Role, subject string) context.Context {
	ctx = context.WithValue(ctx, contextKeyTenant, tenantID)
	ctx = context.WithValue(ctx, contextKeyRole, role)
	return context.WithValue(ctx, contextKeySubject, subject)
}

// TenantIDFromContext returns the authenticated tenant id, or "" when the
// request was not authenticated.
func TenantIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, contextKeyTenant)
}

// RoleFromContext returns the authenticated role. String values are
// normalized so callers that stored a raw role name still resolve.
func RoleFromContext(ctx context.Context) Role {
	if ctx == nil {
		return ""
	}
	switch value := ctx.Value(contextKeyRole).(type) {
	case Role:
		return value
	case string:
		if normalized, valid := NormalizeRole(value); valid {
			return normalized
		}
	}
	return ""
}

// SubjectFromContext returns the token subject, or "" when absent.
func SubjectFromContext(ctx context.Context) string {
	return stringFromContext(ctx, contextKeySubject)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}
