package portal

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// SendCommand issues one device command through the IoT manager endpoint
// and returns the decoded response envelope. Logical failures (the
// envelope's "ret" field) are returned as payload, not as an error.
func (c *Client) SendCommand(ctx context.Context, name string, args any) (map[string]any, error) {
	creds, ok := c.Credentials()
	if !ok {
		return nil, ErrNotLoggedIn
	}

	body := map[string]any{
		"auth":    c.auth(creds),
		"cmdName": name,
		"payload": map[string]any{
			"header": map[string]any{
				"pri": "1",
				"ts":  strconv.FormatInt(time.Now().UnixMilli(), 10),
				"tzm": 480,
				"ver": "0.0.50",
			},
			"body": map[string]any{
				"data": args,
			},
		},
		"payloadType": "j",
		"td":          "q",
		"toId":        c.cfg.DeviceID,
		"toRes":       c.cfg.Resource,
		"toType":      c.cfg.Class,
	}

	var response map[string]any
	if err := c.postJSON(ctx, c.portalURL("api/iot/devmanager.do"), body, &response); err != nil {
		return nil, fmt.Errorf("portal: send %s: %w", name, err)
	}
	c.logger.Debug("command sent", "command", name)
	return response, nil
}

// FetchCleanLogs queries the log endpoint, which returns the bare legacy
// envelope with a top-level "logs" array.
func (c *Client) FetchCleanLogs(ctx context.Context) (map[string]any, error) {
	creds, ok := c.Credentials()
	if !ok {
		return nil, ErrNotLoggedIn
	}

	body := map[string]any{
		"auth":     c.auth(creds),
		"did":      c.cfg.DeviceID,
		"resource": c.cfg.Resource,
		"td":       "GetCleanLogs",
	}

	var response map[string]any
	if err := c.postJSON(ctx, c.portalURL("api/lg/log.do"), body, &response); err != nil {
		return nil, fmt.Errorf("portal: clean logs: %w", err)
	}
	return response, nil
}
