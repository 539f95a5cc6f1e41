package systems

import (
	"context"
	"errors"
	"testing"

	"depths/internal/dojo"
	"depths/internal/models"
)

type recorder struct {
	calls []dojo.Call
	err   error
}

func (r *recorder) Execute(_ context.Context, calls ...dojo.Call) (dojo.TxHash, error) {
	r.calls = append(r.calls, calls...)
	return "0x1", r.err
}

func TestCalls_Move(t *testing.T) {
	rec := &recorder{}
	c := New(rec, "0xactions")
	if _, err := c.Move(context.Background(), models.DirectionDown); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("len(calls) %d, want 1", len(rec.calls))
	}
	call := rec.calls[0]
	if call.To != "0xactions" || call.Entrypoint != "move" {
		t.Errorf("call %+v", call)
	}
	if len(call.Calldata) != 1 || call.Calldata[0] != "0x4" {
		t.Errorf("calldata %v, want [0x4]", call.Calldata)
	}
}

func TestCalls_CreatePlayer(t *testing.T) {
	rec := &recorder{}
	c := New(rec, "0xactions")
	if _, err := c.CreatePlayer(context.Background(), "bob"); err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	if got := rec.calls[0].Calldata; len(got) != 1 || got[0] != "0x626f62" {
		t.Errorf("calldata %v, want [0x626f62]", got)
	}
}

func TestCalls_EndGamePropagatesError(t *testing.T) {
	want := errors.New("reverted")
	c := New(&recorder{err: want}, "0xactions")
	if _, err := c.EndGame(context.Background()); !errors.Is(err, want) {
		t.Errorf("err %v, want %v", err, want)
	}
}

func TestCalls_NotConfigured(t *testing.T) {
	var c *Calls
	if _, err := c.CreateGame(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err %v, want ErrNotConfigured", err)
	}
}

func TestFromManifest(t *testing.T) {
	m, err := dojo.ParseManifest([]byte(`{"contracts":[{"address":"0xabc","tag":"depths_of_dread-actions"}]}`))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	rec := &recorder{}
	c, err := FromManifest(rec, m)
	if err != nil {
		t.Fatalf("FromManifest: %v", err)
	}
	_, _ = c.CreateGame(context.Background())
	if rec.calls[0].To != "0xabc" {
		t.Errorf("To %q, want 0xabc", rec.calls[0].To)
	}
}
