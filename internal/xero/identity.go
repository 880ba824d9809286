package xero

import "context"

// GetConnections lists the tenants the current token is authorized for.
func (c *Client) GetConnections(ctx context.Context) ([]Connection, error) {
	var conns []Connection
	if err := c.get(ctx, "", identityPath, nil, &conns); err != nil {
		return nil, err
	}
	return conns, nil
}
