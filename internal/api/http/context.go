package http

import "context"

type contextKey int

const (
	employeeIDKey contextKey = iota
	requestIDKey
)

func withEmployeeID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, employeeIDKey, id)
}

// EmployeeIDFromContext returns the employee the auth middleware resolved
// from the bearer token, or nil on public routes.
func EmployeeIDFromContext(ctx context.Context) *int64 {
	id, ok := ctx.Value(employeeIDKey).(int64)
	if !ok {
		return nil
	}
	return &id
}

// RequestIDFromContext returns the id assigned to the current request
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
