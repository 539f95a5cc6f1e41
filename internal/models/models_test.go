package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDirection_String(t *testing.T) {
	cases := map[Direction]string{
		DirectionNone:  "None",
		DirectionLeft:  "Left",
		DirectionRight: "Right",
		DirectionUp:    "Up",
		DirectionDown:  "Down",
	}
	for d, want := range cases {
		if got := d.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", d, got, want)
		}
	}
}

func TestGameFloor_DecodeWireShapes(t *testing.T) {
	payload := `{"game_id":3,"size":{"x":5,"y":4},"path":["Left",2,{"option":"Down"}],"end_tile":{"x":4,"y":0}}`
	var floor GameFloor
	if err := json.Unmarshal([]byte(payload), &floor); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if floor.GameID != 3 {
		t.Errorf("GameID %d, want 3", floor.GameID)
	}
	if floor.Size != (Vec2{X: 5, Y: 4}) {
		t.Errorf("Size %+v, want {5 4}", floor.Size)
	}
	want := []Direction{DirectionLeft, DirectionRight, DirectionDown}
	if len(floor.Path) != len(want) {
		t.Fatalf("len(Path) %d, want %d", len(floor.Path), len(want))
	}
	for i := range want {
		if floor.Path[i] != want[i] {
			t.Errorf("Path[%d] = %v, want %v", i, floor.Path[i], want[i])
		}
	}
	if floor.EndTile != (Vec2{X: 4, Y: 0}) {
		t.Errorf("EndTile %+v, want {4 0}", floor.EndTile)
	}
}

func TestGameFloor_EncodeKeepsFieldNames(t *testing.T) {
	floor := GameFloor{GameID: 1, Size: Vec2{X: 2, Y: 2}, Path: []Direction{DirectionUp}, EndTile: Vec2{X: 1, Y: 1}}
	b, err := json.Marshal(floor)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"game_id":1,"size":{"x":2,"y":2},"path":["Up"],"end_tile":{"x":1,"y":1}}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}
}

func TestDirection_UnknownVariant(t *testing.T) {
	var d Direction
	err := json.Unmarshal([]byte(`"Sideways"`), &d)
	if !errors.Is(err, ErrUnknownDirection) {
		t.Errorf("err %v, want ErrUnknownDirection", err)
	}
	err = json.Unmarshal([]byte(`9`), &d)
	if !errors.Is(err, ErrUnknownDirection) {
		t.Errorf("err %v, want ErrUnknownDirection", err)
	}
}

func TestGameData_HexTimestamps(t *testing.T) {
	var data GameData
	if err := json.Unmarshal([]byte(`{"start_time":"0x10","end_time":"0x6a"}`), &data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if data.Elapsed() != 90 {
		t.Errorf("Elapsed %d, want 90", data.Elapsed())
	}
	if !data.Ended() {
		t.Error("Ended should be true")
	}
}

func TestGameData_ElapsedClampsAtZero(t *testing.T) {
	data := GameData{StartTime: 100, EndTime: 0}
	if data.Elapsed() != 0 {
		t.Errorf("Elapsed %d, want 0", data.Elapsed())
	}
}

func TestGameCoins_Has(t *testing.T) {
	coins := GameCoins{Coins: []Vec2{{X: 1, Y: 2}}}
	if !coins.Has(Vec2{X: 1, Y: 2}) {
		t.Error("Has should find coin")
	}
	if coins.Has(Vec2{X: 2, Y: 1}) {
		t.Error("Has should not find missing coin")
	}
}

func TestFeltRoundTrip(t *testing.T) {
	felt, err := StringToFelt("alice")
	if err != nil {
		t.Fatalf("StringToFelt: %v", err)
	}
	if felt != "0x616c696365" {
		t.Errorf("felt %q, want 0x616c696365", felt)
	}
	if got := FeltToString("0x00616c696365"); got != "alice" {
		t.Errorf("FeltToString %q, want alice", got)
	}
	if got := FeltToString("bob"); got != "bob" {
		t.Errorf("FeltToString passthrough %q, want bob", got)
	}
	if _, err := StringToFelt("this username is far too long to fit"); !errors.Is(err, ErrShortStringTooLong) {
		t.Errorf("err %v, want ErrShortStringTooLong", err)
	}
}
