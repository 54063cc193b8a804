package audit

import "context"

type Service interface {
	// Append assigns the next sequence for the company and links the entry
	// to the current head. It joins a transaction already carried by ctx.
	Append(ctx context.Context, req AppendRequest) (Entry, error)
	Verify(ctx context.Context, companyID string) (IntegrityReport, error)
	List(ctx context.Context, companyID string, query ListEntriesQuery) (ListEntriesResponse, error)
	// Export returns the full chain in sequence order.
	Export(ctx context.Context, companyID string) ([]Entry, error)
	// ListCompanies returns every company that has a chain, ordered by id.
	ListCompanies(ctx context.Context) ([]string, error)
}
