package dojo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelQueryField(t *testing.T) {
	assert.Equal(t, "depthsOfDreadGameDataModels", ModelQueryField("depths_of_dread", "GameData"))
	assert.Equal(t, "dojoPositionModels", ModelQueryField("dojo", "Position"))
}

func TestBuildModelQuery(t *testing.T) {
	q := Query{
		Namespace: "depths_of_dread",
		Model:     "GameData",
		Where:     map[string]any{"game_id": uint32(7), "player": "0xabc"},
		Selection: "game_id total_score",
		Limit:     1,
	}
	want := `query { depthsOfDreadGameDataModels(where: {game_id: 7, player: "0xabc"}, first: 1) { edges { node { game_id total_score } } } }`
	assert.Equal(t, want, BuildModelQuery(q))
}

func newGraphQLServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/graphql", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var req graphQLRequest
		assert.NoError(t, json.Unmarshal(body, &req))
		assert.Contains(t, req.Query, "depthsOfDreadGameDataModels")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestToriiClient_GetEntities_Data(t *testing.T) {
	srv := newGraphQLServer(t, `{"data":{"depthsOfDreadGameDataModels":{"edges":[{"node":{"game_id":5,"total_score":120}}]}}}`)
	client := NewToriiClient(srv.URL+"/", srv.Client())

	var got Response
	err := client.GetEntities(context.Background(), Query{Namespace: "depths_of_dread", Model: "GameData", Selection: "game_id total_score"}, func(r Response) {
		got = r
	})
	require.NoError(t, err)
	require.Nil(t, got.Error)
	require.Len(t, got.Data, 1)
	raw, ok := got.Data[0].Model("depths_of_dread", "GameData")
	require.True(t, ok)
	assert.JSONEq(t, `{"game_id":5,"total_score":120}`, string(raw))
}

func TestToriiClient_GetEntities_ErrorResponse(t *testing.T) {
	srv := newGraphQLServer(t, `{"data":null,"errors":[{"message":"unknown field"}]}`)
	client := NewToriiClient(srv.URL, srv.Client())

	var got Response
	err := client.GetEntities(context.Background(), Query{Namespace: "depths_of_dread", Model: "GameData", Selection: "game_id"}, func(r Response) {
		got = r
	})
	require.NoError(t, err)
	require.NotNil(t, got.Error)
	assert.Equal(t, "unknown field", got.Error.Message)
	assert.Empty(t, got.Data)
}

func TestToriiClient_GetEntities_HTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()
	client := NewToriiClient(srv.URL, srv.Client())

	called := false
	err := client.GetEntities(context.Background(), Query{Namespace: "depths_of_dread", Model: "GameData"}, func(Response) {
		called = true
	})
	require.Error(t, err)
	assert.False(t, called, "callback must not run when the request fails")
}
