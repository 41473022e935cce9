package socket

import (
	"testing"

	"github.com/stretchr/testify/require"

	"parley/internal/models"
)

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		engine    byte
		socket    byte
		namespace string
		data      string
	}{
		{"Open", `0{"sid":"x"}`, engineOpen, 0, "", `{"sid":"x"}`},
		{"Ping", `2`, enginePing, 0, "", ``},
		{"Connect ack", `40{"sid":"s"}`, engineMessage, socketConnect, "", `{"sid":"s"}`},
		{"Event", `42["a",1]`, engineMessage, socketEvent, "", `["a",1]`},
		{"Event with ack id", `4217["a",1]`, engineMessage, socketEvent, "", `["a",1]`},
		{"Namespaced event", `42/admin,["a"]`, engineMessage, socketEvent, "/admin", `["a"]`},
		{"Namespaced disconnect", `41/admin`, engineMessage, socketDisconnect, "/admin", ``},
		{"Connect error", `44{"message":"nope"}`, engineMessage, socketConnectError, "", `{"message":"nope"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := decodeFrame([]byte(tt.raw))
			require.NoError(t, err)
			require.Equal(t, tt.engine, f.engine)
			require.Equal(t, tt.socket, f.socket)
			require.Equal(t, tt.namespace, f.namespace)
			require.Equal(t, tt.data, string(f.data))
		})
	}
}

func TestDecodeFrame_Errors(t *testing.T) {
	_, err := decodeFrame(nil)
	require.ErrorIs(t, err, errEmptyFrame)

	_, err = decodeFrame([]byte("4"))
	require.ErrorIs(t, err, errMalformedData)
}

func TestEncodeEvent(t *testing.T) {
	data, err := encodeEvent(models.EventConversationJoin, "chat-1")
	require.NoError(t, err)
	require.Equal(t, `42["conversation:join","chat-1"]`, string(data))

	data, err = encodeEvent(models.EventTypingStart, models.TypingPayload{ChatID: "c", UserID: "u", Username: "bob"})
	require.NoError(t, err)
	require.JSONEq(t, `["typing:start",{"chatId":"c","userId":"u","username":"bob"}]`, string(data[2:]))

	data, err = encodeEvent("ping", nil)
	require.NoError(t, err)
	require.Equal(t, `42["ping"]`, string(data))
}

func TestEncodeConnect(t *testing.T) {
	data, err := encodeConnect(map[string]string{"token": "t1"})
	require.NoError(t, err)
	require.Equal(t, `40{"token":"t1"}`, string(data))
	require.Equal(t, "41", string(encodeDisconnect()))
}

func TestDecodeEvent(t *testing.T) {
	event, payload, err := decodeEvent([]byte(`["message:receive",{"tempId":"t"},"extra"]`))
	require.NoError(t, err)
	require.Equal(t, models.EventMessageReceive, event)
	require.JSONEq(t, `{"tempId":"t"}`, string(payload))

	event, payload, err = decodeEvent([]byte(`["bare"]`))
	require.NoError(t, err)
	require.Equal(t, models.EventType("bare"), event)
	require.Nil(t, payload)

	for _, raw := range []string{`[]`, `[1,2]`, `{"a":1}`, `not json`} {
		_, _, err := decodeEvent([]byte(raw))
		require.ErrorIs(t, err, errMalformedData, raw)
	}
}
