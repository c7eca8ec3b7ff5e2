package petfinder

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// OrganizationName looks up the display name of a shelter or rescue.
func (c *Client) OrganizationName(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("organization id is required")
	}

	var resp organizationResponse
	if err := c.get(ctx, "organization", "/organizations/"+url.PathEscape(id), nil, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Organization.Name), nil
}
