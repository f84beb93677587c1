package wikibase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/ppiankov/openalexbot/internal/model"
)

type editResponse struct {
	Success int `json:"success"`
	Entity  struct {
		ID string `json:"id"`
	} `json:"entity"`
}

// CreateItem writes a new item and returns its assigned id.
// Login must have succeeded first.
func (c *Client) CreateItem(ctx context.Context, item *model.KnowledgeBaseItem, summary string) (string, error) {
	if !c.LoggedIn() {
		return "", fmt.Errorf("%w: create item: not logged in", model.ErrTransport)
	}

	entity, err := Serialize(item)
	if err != nil {
		return "", fmt.Errorf("serialize item: %w", err)
	}
	data, err := json.Marshal(entity)
	if err != nil {
		return "", fmt.Errorf("marshal item: %w", err)
	}

	var res editResponse
	err = c.post(ctx, map[string]string{
		"action":  "wbeditentity",
		"new":     "item",
		"bot":     "1",
		"summary": summary,
		"data":    string(data),
		"token":   c.csrfToken,
	}, &res)
	if err != nil {
		return "", fmt.Errorf("create item: %w", err)
	}
	if res.Entity.ID == "" {
		return "", fmt.Errorf("%w: create item: response carried no entity id", model.ErrTransport)
	}

	c.logger.Debug("item created", "id", res.Entity.ID, "claims", len(item.Claims))
	return res.Entity.ID, nil
}

// EntityURL returns the human-readable page of an entity
func (c *Client) EntityURL(id string) string {
	if base, ok := strings.CutSuffix(c.endpoint, "/w/api.php"); ok {
		return base + "/wiki/" + id
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return id
	}
	u.Path = strings.TrimSuffix(u.Path, "api.php") + "index.php"
	u.RawQuery = url.Values{"title": {"Special:EntityPage/" + id}}.Encode()
	return u.String()
}
