// Package dojo talks to a Dojo world: entity queries and subscriptions
// against the Torii indexer, and transaction dispatch against a Starknet
// JSON-RPC node.
package dojo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// EntityQuerySource fetches entities matching a query. The callback
// receives either an error response or the matching entities; a non-nil
// return value means the request itself failed.
type EntityQuerySource interface {
	GetEntities(ctx context.Context, q Query, cb func(Response)) error
}

// Query selects instances of one model.
type Query struct {
	Namespace string
	Model     string
	Where     map[string]any
	Selection string
	Limit     int
}

// Response is what a query delivers to its callback.
type Response struct {
	Error *QueryError
	Data  []Entity
}

// QueryError is an error reported by the indexer inside a response.
type QueryError struct {
	Message string
}

func (e *QueryError) Error() string { return e.Message }

// Entity carries raw model values keyed by namespace then model name.
type Entity struct {
	Models map[string]map[string]json.RawMessage `json:"models"`
}

// Model returns the raw value of namespace/model, if present.
func (e Entity) Model(namespace, model string) (json.RawMessage, bool) {
	ns, ok := e.Models[namespace]
	if !ok {
		return nil, false
	}
	raw, ok := ns[model]
	return raw, ok
}

// ToriiClient queries the Torii GraphQL endpoint.
type ToriiClient struct {
	baseURL string
	http    *http.Client
}

// NewToriiClient returns a client for the indexer at baseURL.
func NewToriiClient(baseURL string, client *http.Client) *ToriiClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &ToriiClient{baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type modelConnection struct {
	Edges []struct {
		Node json.RawMessage `json:"node"`
	} `json:"edges"`
}

// GetEntities implements EntityQuerySource.
func (c *ToriiClient) GetEntities(ctx context.Context, q Query, cb func(Response)) error {
	field := ModelQueryField(q.Namespace, q.Model)
	body, err := json.Marshal(graphQLRequest{Query: BuildModelQuery(q)})
	if err != nil {
		return fmt.Errorf("encode query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("query %s: %w", field, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", field, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("query %s: HTTP %d: %s", field, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out graphQLResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode %s: %w", field, err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		cb(Response{Error: &QueryError{Message: strings.Join(msgs, "; ")}})
		return nil
	}

	var conn modelConnection
	if rawConn, ok := out.Data[field]; ok && len(rawConn) > 0 && string(rawConn) != "null" {
		if err := json.Unmarshal(rawConn, &conn); err != nil {
			return fmt.Errorf("decode %s edges: %w", field, err)
		}
	}
	entities := make([]Entity, 0, len(conn.Edges))
	for _, edge := range conn.Edges {
		entities = append(entities, Entity{Models: map[string]map[string]json.RawMessage{
			q.Namespace: {q.Model: edge.Node},
		}})
	}
	cb(Response{Data: entities})
	return nil
}

// ModelQueryField is the Torii root field for a model, e.g.
// depths_of_dread/GameData -> depthsOfDreadGameDataModels.
func ModelQueryField(namespace, model string) string {
	parts := strings.Split(namespace, "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			b.WriteString(strings.ToLower(p))
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	b.WriteString(model)
	b.WriteString("Models")
	return b.String()
}

// BuildModelQuery renders q as a GraphQL document.
func BuildModelQuery(q Query) string {
	var args []string
	if len(q.Where) > 0 {
		keys := make([]string, 0, len(q.Where))
		for k := range q.Where {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		conds := make([]string, 0, len(keys))
		for _, k := range keys {
			conds = append(conds, k+": "+graphQLValue(q.Where[k]))
		}
		args = append(args, "where: {"+strings.Join(conds, ", ")+"}")
	}
	if q.Limit > 0 {
		args = append(args, "first: "+strconv.Itoa(q.Limit))
	}
	field := ModelQueryField(q.Namespace, q.Model)
	if len(args) > 0 {
		field += "(" + strings.Join(args, ", ") + ")"
	}
	return "query { " + field + " { edges { node { " + q.Selection + " } } } }"
}

func graphQLValue(v any) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return strconv.Quote(fmt.Sprint(val))
	}
}
