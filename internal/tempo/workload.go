package tempo

import (
	"context"
	"net/http"
	"net/url"
)

// WorkloadDay is the required time for one weekday, named in upper case
// ("MONDAY").
type WorkloadDay struct {
	Day             string `json:"day"`
	RequiredSeconds int    `json:"requiredSeconds"`
}

type WorkloadScheme struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Days        []WorkloadDay `json:"days"`
}

// UserWorkloadScheme returns the workload scheme assigned to a user.
func (c *Client) UserWorkloadScheme(ctx context.Context, accountID string) (WorkloadScheme, error) {
	const op = "get workload scheme"
	b, err := c.do(ctx, op, http.MethodGet, "/workload-schemes/users/"+url.PathEscape(accountID), nil, nil)
	if err != nil {
		return WorkloadScheme{}, err
	}
	// The scheme is returned either directly or wrapped per user.
	var out struct {
		WorkloadScheme
		Wrapped *WorkloadScheme `json:"workloadScheme"`
	}
	if err := c.decode(op, b, &out); err != nil {
		return WorkloadScheme{}, err
	}
	if out.Wrapped != nil {
		return *out.Wrapped, nil
	}
	return out.WorkloadScheme, nil
}
