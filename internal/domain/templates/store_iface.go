package templates

import "context"

type StoreAPI interface {
	ListTemplates(ctx context.Context, filter Filter) ([]Template, error)
	GetTemplate(ctx context.Context, templateID string) (Template, error)
}
