package main

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Client -> Server message types
const (
	MsgMove  = "move"
	MsgThrow = "throw"
	MsgEmote = "emote"
)

// Server -> Client message types
const (
	MsgInit          = "init"
	MsgHit           = "hit"
	MsgRespawn       = "respawn"
	MsgDisconnect    = "disconnect"
	MsgUpdateBullets = "updateBullets"
	MsgUpdateWalls   = "updateWalls"
)

const maxEmoteSize = 256

// InEvent is any inbound client event; fields not used by Type are ignored
type InEvent struct {
	Type  string          `json:"type"`
	X     *float64        `json:"x"`
	Y     *float64        `json:"y"`
	Angle *float64        `json:"angle"`
	DX    *float64        `json:"dx"`
	DY    *float64        `json:"dy"`
	Emote json.RawMessage `json:"emote"`
}

// PlayerState is a player entry in the init message
type PlayerState struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Angle  float64 `json:"angle"`
	Health int     `json:"health"`
}

// ProjectileState is a projectile as seen by clients
type ProjectileState struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	DX      float64 `json:"dx"`
	DY      float64 `json:"dy"`
	Bounces int     `json:"bounces"`
}

// InitMsg is unicast to a client when it joins (and after a regeneration)
type InitMsg struct {
	Type        string                 `json:"type"`
	Players     map[string]PlayerState `json:"players"`
	Walls       []Obstacle             `json:"walls"`
	WorldWidth  float64                `json:"world_width"`
	WorldHeight float64                `json:"world_height"`
}

// MoveMsg announces a committed move
type MoveMsg struct {
	Type     string  `json:"type"`
	ClientID string  `json:"client_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Angle    float64 `json:"angle"`
}

// ThrowMsg announces a new projectile
type ThrowMsg struct {
	Type     string          `json:"type"`
	ClientID string          `json:"client_id"`
	Bullet   ProjectileState `json:"bullet"`
}

// EmoteMsg relays an opaque emote
type EmoteMsg struct {
	Type     string `json:"type"`
	ClientID string `json:"client_id"`
	Emote    any    `json:"emote"`
}

// HitMsg reports a player's health after a projectile hit
type HitMsg struct {
	Type     string `json:"type"`
	ClientID string `json:"client_id"`
	Health   int    `json:"health"`
}

// RespawnMsg announces a player's return
type RespawnMsg struct {
	Type     string  `json:"type"`
	ClientID string  `json:"client_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Health   int     `json:"health"`
}

// DisconnectMsg tells peers to drop a departed player
type DisconnectMsg struct {
	Type     string `json:"type"`
	ClientID string `json:"client_id"`
}

// UpdateBulletsMsg carries the full projectile list every tick
type UpdateBulletsMsg struct {
	Type    string            `json:"type"`
	Bullets []ProjectileState `json:"bullets"`
}

// UpdateWallsMsg carries the full obstacle list every tick
type UpdateWallsMsg struct {
	Type  string     `json:"type"`
	Walls []Obstacle `json:"walls"`
}

// Codec is a connection's wire encoding
type Codec int

const (
	CodecJSON Codec = iota
	CodecMsgpack
)

// ParseCodec maps a handshake value to a codec; anything unknown is JSON
func ParseCodec(s string) Codec {
	if s == "msgpack" {
		return CodecMsgpack
	}
	return CodecJSON
}

// Frame is an outbound message encoded lazily, at most once per codec,
// however many clients it is delivered to.
type Frame struct {
	Msg any

	jsonOnce sync.Once
	jsonData []byte
	jsonErr  error

	mpOnce sync.Once
	mpData []byte
	mpErr  error
}

// NewFrame wraps msg for delivery
func NewFrame(msg any) *Frame {
	return &Frame{Msg: msg}
}

// Encode returns the frame in the given codec
func (f *Frame) Encode(c Codec) ([]byte, error) {
	if c == CodecMsgpack {
		f.mpOnce.Do(func() { f.mpData, f.mpErr = marshalMsgpack(f.Msg) })
		return f.mpData, f.mpErr
	}
	f.jsonOnce.Do(func() { f.jsonData, f.jsonErr = json.Marshal(f.Msg) })
	return f.jsonData, f.jsonErr
}

// marshalMsgpack encodes with the json struct tags so both codecs share
// field names.
func marshalMsgpack(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unmarshalMsgpack is the inverse of marshalMsgpack
func unmarshalMsgpack(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// decodeEvent parses an inbound event in the given codec
func decodeEvent(c Codec, raw []byte) (InEvent, error) {
	var ev InEvent
	if c == CodecMsgpack {
		// msgpack inbound is decoded generically, then normalised through
		// JSON so the emote payload keeps its raw form.
		var m map[string]any
		if err := unmarshalMsgpack(raw, &m); err != nil {
			return ev, err
		}
		js, err := json.Marshal(m)
		if err != nil {
			return ev, err
		}
		raw = js
	}
	err := json.Unmarshal(raw, &ev)
	return ev, err
}
