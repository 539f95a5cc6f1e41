package screen

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"depths/internal/dojo"
	"depths/internal/models"
)

func TestNew_InitialState(t *testing.T) {
	s := New(SwallowErrors)
	st := s.State()
	if !st.Hint || !st.Tiles {
		t.Error("hint and tiles should start visible")
	}
	if st.Modal {
		t.Error("exit confirmation should start hidden")
	}
	if st.CurrentFloor != 1 {
		t.Errorf("CurrentFloor %d, want 1", st.CurrentFloor)
	}
}

func TestMount_SignalsLoadingOnce(t *testing.T) {
	s := New(SwallowErrors)
	var calls []bool
	setLoading := func(v bool) { calls = append(calls, v) }
	s.Mount(setLoading)
	s.Mount(setLoading)
	if !reflect.DeepEqual(calls, []bool{false}) {
		t.Errorf("setLoading calls %v, want [false]", calls)
	}
}

func TestOverlays_IndependentFlags(t *testing.T) {
	for mask := 0; mask < 16; mask++ {
		hint := mask&1 != 0
		modal := mask&2 != 0
		cleared := mask&4 != 0
		over := mask&8 != 0

		s := New(SwallowErrors)
		if !hint {
			s.CloseHint()
		}
		if modal {
			s.OpenExit()
		}
		props := Props{GameOver: over}
		props.PlayerState.CurrentFloor = 1
		if cleared {
			props.PlayerState.CurrentFloor = 2
		}

		var want []Overlay
		if hint {
			want = append(want, OverlayHint)
		}
		if modal {
			want = append(want, OverlayConfirm)
		}
		if cleared {
			want = append(want, OverlayFloorCleared)
		}
		if over {
			want = append(want, OverlayGameOver)
		}
		got := s.Overlays(props)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("mask %04b: overlays %v, want %v", mask, got, want)
		}
	}
}

func TestOverlays_FloorClearedOnlyWhenBehind(t *testing.T) {
	s := New(SwallowErrors)
	s.CloseHint()
	for _, floor := range []uint32{0, 1} {
		props := Props{}
		props.PlayerState.CurrentFloor = floor
		if got := s.Overlays(props); len(got) != 0 {
			t.Errorf("floor %d: overlays %v, want none", floor, got)
		}
	}
	props := Props{}
	props.PlayerState.CurrentFloor = 3
	if got := s.Overlays(props); !reflect.DeepEqual(got, []Overlay{OverlayFloorCleared}) {
		t.Errorf("overlays %v, want floor-cleared", got)
	}
}

func TestNextFloor(t *testing.T) {
	s := New(SwallowErrors)
	s.CloseHint()
	s.OpenExit()
	before := s.State().CurrentFloor

	s.NextFloor()

	st := s.State()
	if st.CurrentFloor != before+1 {
		t.Errorf("CurrentFloor %d, want %d", st.CurrentFloor, before+1)
	}
	if !st.Hint || !st.Tiles {
		t.Error("hint and tiles should be visible again")
	}
	if st.Modal {
		t.Error("NextFloor clears the exit confirmation flag")
	}
}

func TestCloseHint(t *testing.T) {
	s := New(SwallowErrors)
	s.CloseHint()
	st := s.State()
	if st.Hint || st.Tiles {
		t.Error("hint and tiles should be hidden")
	}
}

func TestCancelConfirm(t *testing.T) {
	s := New(SwallowErrors)
	s.OpenExit()
	s.CancelConfirm()
	if s.State().Modal {
		t.Error("exit confirmation should be hidden")
	}
}

func TestHintGlyphs(t *testing.T) {
	got := HintGlyphs([]models.Direction{models.DirectionLeft, models.DirectionRight, models.DirectionDown})
	want := []string{"l", "r", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HintGlyphs %v, want %v", got, want)
	}
	if got := HintGlyphs(nil); len(got) != 0 {
		t.Errorf("HintGlyphs(nil) %v, want empty", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	cases := map[uint64]string{
		0:    "00:00:00",
		90:   "00:01:30",
		3661: "01:01:01",
	}
	for in, want := range cases {
		if got := FormatElapsed(in); got != want {
			t.Errorf("FormatElapsed(%d) = %q, want %q", in, got, want)
		}
	}
}

type slowEndGame struct {
	delay time.Duration
	err   error
	log   *[]string
	mu    *sync.Mutex
}

func (e slowEndGame) EndGame(context.Context) (dojo.TxHash, error) {
	time.Sleep(e.delay)
	e.mu.Lock()
	*e.log = append(*e.log, "settled")
	e.mu.Unlock()
	return "0x1", e.err
}

func confirmRecorder() (*[]string, *sync.Mutex, func(bool), func(View)) {
	var (
		events []string
		mu     sync.Mutex
	)
	setLoading := func(v bool) {
		mu.Lock()
		defer mu.Unlock()
		if v {
			events = append(events, "loading=true")
		} else {
			events = append(events, "loading=false")
		}
	}
	navigate := func(v View) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, "navigate="+string(v))
	}
	return &events, &mu, setLoading, navigate
}

func TestConfirm_Ordering(t *testing.T) {
	events, mu, setLoading, navigate := confirmRecorder()
	s := New(SwallowErrors)
	err := s.Confirm(context.Background(), slowEndGame{delay: 10 * time.Millisecond, log: events, mu: mu}, setLoading, navigate)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	want := []string{"loading=true", "settled", "loading=false", "navigate=MainScreen"}
	if !reflect.DeepEqual(*events, want) {
		t.Errorf("events %v, want %v", *events, want)
	}
}

func TestConfirm_SwallowsFailure(t *testing.T) {
	events, mu, setLoading, navigate := confirmRecorder()
	s := New(SwallowErrors)
	err := s.Confirm(context.Background(), slowEndGame{err: errors.New("reverted"), log: events, mu: mu}, setLoading, navigate)
	if err != nil {
		t.Fatalf("Confirm should swallow, got %v", err)
	}
	want := []string{"loading=true", "settled", "loading=false", "navigate=MainScreen"}
	if !reflect.DeepEqual(*events, want) {
		t.Errorf("events %v, want %v", *events, want)
	}
}

func TestConfirm_SurfacesFailure(t *testing.T) {
	events, mu, setLoading, navigate := confirmRecorder()
	s := New(SurfaceErrors)
	s.OpenExit()
	failure := errors.New("reverted")
	err := s.Confirm(context.Background(), slowEndGame{err: failure, log: events, mu: mu}, setLoading, navigate)
	if !errors.Is(err, failure) {
		t.Fatalf("err %v, want %v", err, failure)
	}
	want := []string{"loading=true", "settled", "loading=false"}
	if !reflect.DeepEqual(*events, want) {
		t.Errorf("events %v, want %v", *events, want)
	}
	if !errors.Is(s.State().ConfirmErr, failure) {
		t.Errorf("ConfirmErr %v, want %v", s.State().ConfirmErr, failure)
	}
}

type stubSource struct {
	resp dojo.Response
	err  error
}

func (s stubSource) GetEntities(_ context.Context, _ dojo.Query, cb func(dojo.Response)) error {
	if s.err != nil {
		return s.err
	}
	cb(s.resp)
	return nil
}

func gameDataEntity(raw string) dojo.Entity {
	return dojo.Entity{Models: map[string]map[string]json.RawMessage{
		models.Namespace: {models.ModelGameData: json.RawMessage(raw)},
	}}
}

func TestGameOverResult_Fetch(t *testing.T) {
	r := NewGameOverResult(SwallowErrors)
	if !r.Begin() {
		t.Fatal("first Begin should report true")
	}
	if r.Begin() {
		t.Error("second Begin should report false")
	}
	if !r.View().Pending() {
		t.Error("view should be pending before fetch")
	}
	src := stubSource{resp: dojo.Response{Data: []dojo.Entity{
		gameDataEntity(`{"floor_reached":5,"total_score":120,"start_time":0,"end_time":90}`),
	}}}
	r.Fetch(context.Background(), src, 1, 0)

	v := r.View()
	if v.Data == nil {
		t.Fatal("expected data")
	}
	if v.Data.FloorReached != 5 || v.Data.TotalScore != 120 {
		t.Errorf("data %+v", *v.Data)
	}
	if v.ElapsedText() != "00:01:30" {
		t.Errorf("ElapsedText %q, want 00:01:30", v.ElapsedText())
	}
}

func TestGameOverResult_ErrorsLoggedOnly(t *testing.T) {
	for _, src := range []stubSource{
		{resp: dojo.Response{Error: &dojo.QueryError{Message: "bad query"}}},
		{err: errors.New("connection refused")},
	} {
		r := NewGameOverResult(SwallowErrors)
		r.Fetch(context.Background(), src, 1, 0)
		v := r.View()
		if v.Data != nil || v.Err != nil {
			t.Errorf("view %+v, want blank without error", v)
		}
		if v.ElapsedText() != "" {
			t.Errorf("ElapsedText %q, want empty", v.ElapsedText())
		}
	}
}

func TestGameOverResult_SurfacedError(t *testing.T) {
	r := NewGameOverResult(SurfaceErrors)
	r.Fetch(context.Background(), stubSource{err: errors.New("connection refused")}, 1, 0)
	if r.View().Err == nil {
		t.Error("error should be kept under SurfaceErrors")
	}
}

func TestGrid(t *testing.T) {
	props := Props{
		GameFloor: models.GameFloor{Size: models.Vec2{X: 3, Y: 2}, EndTile: models.Vec2{X: 2, Y: 1}},
		GameCoins: models.GameCoins{Coins: []models.Vec2{{X: 1, Y: 0}}},
	}
	props.PlayerState.Position = models.Vec2{X: 0, Y: 0}

	rows := Grid(props, false)
	if len(rows) != 2 || len(rows[0]) != 3 {
		t.Fatalf("grid %dx%d, want 2 rows of 3", len(rows), len(rows[0]))
	}
	if !rows[0][2].Exit {
		t.Error("top-right tile should be the exit")
	}
	if !rows[1][0].Player {
		t.Error("bottom-left tile should hold the player")
	}
	if !rows[1][1].Coin {
		t.Error("bottom-middle tile should hold a coin")
	}
	if rows[0][0].Revealed {
		t.Error("plain tiles stay hidden without tiles flag")
	}
	if !Grid(props, true)[0][0].Revealed {
		t.Error("tiles flag reveals every tile")
	}
}
