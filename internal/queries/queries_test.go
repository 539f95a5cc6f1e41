package queries

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"depths/internal/dojo"
	"depths/internal/models"
)

type stubSource struct {
	resp  dojo.Response
	err   error
	query dojo.Query
}

func (s *stubSource) GetEntities(_ context.Context, q dojo.Query, cb func(dojo.Response)) error {
	s.query = q
	if s.err != nil {
		return s.err
	}
	cb(s.resp)
	return nil
}

func entity(model string, raw string) dojo.Entity {
	return dojo.Entity{Models: map[string]map[string]json.RawMessage{
		models.Namespace: {model: json.RawMessage(raw)},
	}}
}

func TestGameData_Query(t *testing.T) {
	q := GameData(9)
	if q.Namespace != models.Namespace || q.Model != models.ModelGameData {
		t.Errorf("query targets %s/%s", q.Namespace, q.Model)
	}
	if q.Where["game_id"] != uint32(9) {
		t.Errorf("where %v, want game_id 9", q.Where)
	}
}

func TestFetchOne_Decodes(t *testing.T) {
	src := &stubSource{resp: dojo.Response{Data: []dojo.Entity{
		entity(models.ModelGameData, `{"floor_reached":5,"total_score":120,"start_time":0,"end_time":90}`),
	}}}
	data, err := FetchOne[models.GameData](context.Background(), src, GameData(1))
	if err != nil {
		t.Fatalf("FetchOne: %v", err)
	}
	if data.FloorReached != 5 || data.TotalScore != 120 || data.Elapsed() != 90 {
		t.Errorf("decoded %+v", data)
	}
	if src.query.Model != models.ModelGameData {
		t.Errorf("queried model %q", src.query.Model)
	}
}

func TestFetchOne_Empty(t *testing.T) {
	src := &stubSource{}
	_, err := FetchOne[models.PlayerState](context.Background(), src, PlayerState("0x1"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err %v, want ErrNotFound", err)
	}
}

func TestFetchOne_ErrorResponse(t *testing.T) {
	src := &stubSource{resp: dojo.Response{Error: &dojo.QueryError{Message: "boom"}}}
	_, err := FetchOne[models.GameFloor](context.Background(), src, GameFloor(1))
	var qerr *dojo.QueryError
	if !errors.As(err, &qerr) || qerr.Message != "boom" {
		t.Errorf("err %v, want QueryError boom", err)
	}
}

func TestFetchOne_TransportError(t *testing.T) {
	want := errors.New("connection refused")
	src := &stubSource{err: want}
	_, err := FetchOne[models.GameCoins](context.Background(), src, GameCoins(1))
	if !errors.Is(err, want) {
		t.Errorf("err %v, want %v", err, want)
	}
}
