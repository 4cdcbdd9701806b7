// internal/game/adapter.go: conversions between engine values and the
// client wire format, plus action payload decoding.
package game

import (
	"errors"
	"fmt"

	"github.com/zsh28/Rummikub/engine"
)

// colorToString converts an engine color to its wire name.
func colorToString(color uint8) string {
	switch color {
	case engine.ColorRed:
		return "red"
	case engine.ColorBlue:
		return "blue"
	case engine.ColorBlack:
		return "black"
	case engine.ColorOrange:
		return "orange"
	default:
		return "?"
	}
}

// stringToColor converts a wire color name to the engine color.
func stringToColor(s string) (uint8, error) {
	switch s {
	case "red":
		return engine.ColorRed, nil
	case "blue":
		return engine.ColorBlue, nil
	case "black":
		return engine.ColorBlack, nil
	case "orange":
		return engine.ColorOrange, nil
	default:
		return 0, fmt.Errorf("unknown tile color %q", s)
	}
}

// tileToWire converts an engine tile to its wire representation.
func tileToWire(t engine.Tile) WireTile {
	if t.IsJoker() {
		return WireTile{Joker: true}
	}
	return WireTile{Color: colorToString(t.Color()), Rank: t.Rank()}
}

// wireToTile converts a wire tile back to the packed engine form.
func wireToTile(w WireTile) (engine.Tile, error) {
	if w.Joker {
		return engine.TileJoker, nil
	}
	color, err := stringToColor(w.Color)
	if err != nil {
		return engine.EmptyTile, err
	}
	if w.Rank < 1 || w.Rank > engine.MaxRank {
		return engine.EmptyTile, fmt.Errorf("tile rank %d out of range", w.Rank)
	}
	return engine.NewTile(color, w.Rank), nil
}

// meldsToWire converts a table layout for broadcasting.
func meldsToWire(melds []engine.Meld) []WireMeld {
	out := make([]WireMeld, len(melds))
	for i := range melds {
		wm := WireMeld{Tiles: make([]WireTile, len(melds[i].Tiles))}
		if melds[i].Kind == engine.MeldSet {
			wm.Kind = "set"
		} else {
			wm.Kind = "run"
		}
		for j, t := range melds[i].Tiles {
			wm.Tiles[j] = tileToWire(t)
		}
		out[i] = wm
	}
	return out
}

// handToWire converts a player's hand for private events.
func handToWire(hand []engine.Tile) []WireTile {
	out := make([]WireTile, len(hand))
	for i, t := range hand {
		out[i] = tileToWire(t)
	}
	return out
}

// ---------------------------------------------------------------------------
// Payload decoding
//
// Action payloads arrive as map[string]interface{} from the WebSocket JSON
// decoder, so every numeric field is a float64 and nested structures are
// generic maps and slices.
// ---------------------------------------------------------------------------

var errBadPayload = errors.New("malformed action payload")

// decodeIndexList pulls a []uint8 index list out of a payload field.
func decodeIndexList(payload map[string]interface{}, key string) ([]uint8, error) {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, errBadPayload
	}
	out := make([]uint8, len(list))
	for i, v := range list {
		f, ok := v.(float64)
		if !ok || f < 0 || f != float64(uint8(f)) {
			return nil, errBadPayload
		}
		out[i] = uint8(f)
	}
	return out, nil
}

// decodeMelds pulls the proposed table layout out of a payload field.
func decodeMelds(payload map[string]interface{}, key string) ([]engine.Meld, error) {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, errBadPayload
	}
	melds := make([]engine.Meld, len(list))
	for i, mv := range list {
		mm, ok := mv.(map[string]interface{})
		if !ok {
			return nil, errBadPayload
		}
		kind, _ := mm["kind"].(string)
		switch kind {
		case "set":
			melds[i].Kind = engine.MeldSet
		case "run":
			melds[i].Kind = engine.MeldRun
		default:
			return nil, errBadPayload
		}
		rawTiles, ok := mm["tiles"].([]interface{})
		if !ok {
			return nil, errBadPayload
		}
		melds[i].Tiles = make([]engine.Tile, len(rawTiles))
		for j, tv := range rawTiles {
			tm, ok := tv.(map[string]interface{})
			if !ok {
				return nil, errBadPayload
			}
			wt := WireTile{}
			if joker, _ := tm["joker"].(bool); joker {
				wt.Joker = true
			} else {
				wt.Color, _ = tm["color"].(string)
				rank, ok := tm["rank"].(float64)
				if !ok {
					return nil, errBadPayload
				}
				wt.Rank = uint8(rank)
			}
			tile, err := wireToTile(wt)
			if err != nil {
				return nil, err
			}
			melds[i].Tiles[j] = tile
		}
	}
	return melds, nil
}

// decodeRetrievals pulls joker retrieval requests out of a payload field.
func decodeRetrievals(payload map[string]interface{}, key string) ([]engine.JokerRetrieval, error) {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, errBadPayload
	}
	out := make([]engine.JokerRetrieval, len(list))
	for i, rv := range list {
		rm, ok := rv.(map[string]interface{})
		if !ok {
			return nil, errBadPayload
		}
		meldIdx, ok1 := rm["meldIndex"].(float64)
		tilePos, ok2 := rm["tilePos"].(float64)
		handIdx, ok3 := rm["handIndex"].(float64)
		if !ok1 || !ok2 || !ok3 {
			return nil, errBadPayload
		}
		out[i] = engine.JokerRetrieval{
			MeldIndex: uint8(meldIdx),
			TilePos:   uint8(tilePos),
			HandIndex: uint8(handIdx),
		}
	}
	return out, nil
}
