package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	errspkg "github.com/drblury/relay/internal/runtime/errors"
)

func TestNewResponseSwapsAddresses(t *testing.T) {
	req := NewRequest("X", "Y", "1", "add", Args{"a": 1})
	res := NewResponse(req, 2, nil)

	assert.Equal(t, TypeResponse, res.Type)
	assert.Equal(t, "Y", res.From)
	assert.Equal(t, "X", res.To)
	assert.Equal(t, "1", res.ID)
	assert.Equal(t, 2, res.Result)
	assert.Empty(t, res.Method)
	assert.Nil(t, res.Args)
}

func TestMessageValidate(t *testing.T) {
	cases := []struct {
		name string
		msg  Message
		err  error
	}{
		{"request", NewRequest("X", "Y", "1", "add", nil), nil},
		{"request without id", Message{Type: TypeRequest, Method: "add"}, nil},
		{"request without method", Message{Type: TypeRequest, ID: "1"}, errspkg.ErrMethodRequired},
		{"notification", NewNotification("X", "Y", "ping", nil), nil},
		{"notification without method", Message{Type: TypeNotification}, errspkg.ErrMethodRequired},
		{"response", Message{Type: TypeResponse, ID: "1"}, nil},
		{"response without id", Message{Type: TypeResponse}, nil},
		{"unknown type", Message{Type: "event"}, errspkg.ErrUnknownMessageType},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestMessageIsFailure(t *testing.T) {
	assert.False(t, Message{Type: TypeResponse, Error: false}.IsFailure())
	assert.False(t, Message{Type: TypeResponse, Error: 0}.IsFailure())
	assert.True(t, Message{Type: TypeResponse, Error: "nope"}.IsFailure())
}

func TestMessageLogFields(t *testing.T) {
	fields := NewNotification("X", "Y", "ping", nil).logFields()

	assert.Equal(t, map[string]any{"type": "notification", "from": "X", "to": "Y", "method": "ping"}, fields)
}
