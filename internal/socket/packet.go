package socket

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"parley/internal/models"
)

// Engine.IO v4 packet types.
const (
	engineOpen    byte = '0'
	engineClose   byte = '1'
	enginePing    byte = '2'
	enginePong    byte = '3'
	engineMessage byte = '4'
	engineNoop    byte = '6'
)

// Socket.IO v5 packet types, carried inside Engine.IO message packets.
const (
	socketConnect      byte = '0'
	socketDisconnect   byte = '1'
	socketEvent        byte = '2'
	socketAck          byte = '3'
	socketConnectError byte = '4'
)

var (
	errEmptyFrame    = errors.New("empty frame")
	errMalformedData = errors.New("malformed packet")
)

// frame is one decoded WebSocket text frame.
type frame struct {
	engine    byte
	socket    byte
	namespace string
	data      []byte
}

type openPayload struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
	MaxPayload   int    `json:"maxPayload"`
}

type connectErrorPayload struct {
	Message string `json:"message"`
}

func decodeFrame(raw []byte) (frame, error) {
	if len(raw) == 0 {
		return frame{}, errEmptyFrame
	}

	f := frame{engine: raw[0]}
	if f.engine != engineMessage {
		f.data = raw[1:]
		return f, nil
	}

	if len(raw) < 2 {
		return frame{}, fmt.Errorf("%w: message without socket type", errMalformedData)
	}
	f.socket = raw[1]
	rest := string(raw[2:])

	if strings.HasPrefix(rest, "/") {
		if i := strings.IndexByte(rest, ','); i >= 0 {
			f.namespace, rest = rest[:i], rest[i+1:]
		} else {
			f.namespace, rest = rest, ""
		}
	}

	// Events and acks may carry a numeric ack id before the JSON body.
	if f.socket == socketEvent || f.socket == socketAck {
		rest = strings.TrimLeft(rest, "0123456789")
	}

	f.data = []byte(rest)
	return f, nil
}

// inRootNamespace reports whether the frame belongs to the default namespace.
func (f frame) inRootNamespace() bool {
	return f.namespace == "" || f.namespace == "/"
}

func encodeConnect(auth any) ([]byte, error) {
	data, err := json.Marshal(auth)
	if err != nil {
		return nil, err
	}
	return append([]byte{engineMessage, socketConnect}, data...), nil
}

func encodeDisconnect() []byte {
	return []byte{engineMessage, socketDisconnect}
}

func encodeEvent(event models.EventType, payload any) ([]byte, error) {
	args := []any{string(event)}
	if payload != nil {
		args = append(args, payload)
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return append([]byte{engineMessage, socketEvent}, data...), nil
}

// decodeEvent splits an event body into its name and first argument.
func decodeEvent(data []byte) (models.EventType, json.RawMessage, error) {
	var args []json.RawMessage
	if err := json.Unmarshal(data, &args); err != nil {
		return "", nil, fmt.Errorf("%w: %v", errMalformedData, err)
	}
	if len(args) == 0 {
		return "", nil, fmt.Errorf("%w: event without name", errMalformedData)
	}

	var name string
	if err := json.Unmarshal(args[0], &name); err != nil {
		return "", nil, fmt.Errorf("%w: event name is not a string", errMalformedData)
	}

	var payload json.RawMessage
	if len(args) > 1 {
		payload = args[1]
	}
	return models.EventType(name), payload, nil
}
