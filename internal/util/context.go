package util

import "context"

type contextKey string

const (
	contextKeyResource  contextKey = "resource"
	contextKeyOperation contextKey = "operation"
)

// ContextWithResource returns a context carrying the CMS resource name.
func ContextWithResource(ctx context.Context, resource string) context.Context {
	return context.WithValue(ctx, contextKeyResource, resource)
}

// ResourceFromContext extracts the CMS resource name from the context.
func ResourceFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyResource).(string); ok {
		return v
	}
	return ""
}

// ContextWithOperation returns a context carrying the data operation name
// (getList, create, deleteMany, ...).
func ContextWithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, contextKeyOperation, operation)
}

// OperationFromContext extracts the data operation name from the context.
func OperationFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyOperation).(string); ok {
		return v
	}
	return ""
}
