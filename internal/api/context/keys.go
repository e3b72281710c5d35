// Package context holds the request-scoped values the middleware chain attaches.
package context

import (
	"context"

	"github.com/julienschmidt/httprouter"

	"propertyhub/internal/platform/auth"
	"propertyhub/internal/platform/database"
)

type Key string

const (
	Claims Key = "claims"
	Tenant Key = "tenant"
	Params Key = "params"
)

func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(Claims).(*auth.Claims)
	return c, ok && c != nil
}

func TenantFrom(ctx context.Context) (*database.TenantContext, bool) {
	t, ok := ctx.Value(Tenant).(*database.TenantContext)
	return t, ok && t != nil
}

// Param returns a named route parameter, or "" outside a routed request.
func Param(ctx context.Context, name string) string {
	ps, _ := ctx.Value(Params).(httprouter.Params)
	return ps.ByName(name)
}
