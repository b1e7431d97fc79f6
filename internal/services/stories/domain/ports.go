package domain

import "context"

// ServicePort defines the service contract for stories
type ServicePort interface {
	List(ctx context.Context, in ListInput) (ListResult, error)
	Get(ctx context.Context, id int64) (StoryDetail, error)
	GetContent(ctx context.Context, id int64) (Content, error)
	MarkOpened(ctx context.Context, id int64) error
	Dismiss(ctx context.Context, id int64) error
	Undismiss(ctx context.Context, id int64) error
	ClearDismissed(ctx context.Context) error
	AddReadLater(ctx context.Context, id int64) error
	RemoveReadLater(ctx context.Context, id int64) error
	Stats(ctx context.Context) (Stats, error)
	Updates(ctx context.Context) ([]Update, error)
}

// DomainBlocker is the slice of the rules service the batch endpoint needs
type DomainBlocker interface {
	AddBlockedDomain(ctx context.Context, domain string) error
}
