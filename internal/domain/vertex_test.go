package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVertexKeys(t *testing.T) {
	t.Run("objects compare by id", func(t *testing.T) {
		a := NewObjectVertex(NewObjectRef(1, "Router", "a"))
		b := NewObjectVertex(NewObjectRef(1, "Router", "renamed"))
		assert.Equal(t, a.Key(), b.Key())
	})

	t.Run("frames with the same title are distinct", func(t *testing.T) {
		a := NewFrameVertex("Room")
		b := NewFrameVertex("Room")
		assert.NotEqual(t, a.Key(), b.Key())
	})

	t.Run("kinds partition the key space", func(t *testing.T) {
		frame := FrameVertex{ID: "1", Text: "x"}
		label := LabelVertex{ID: "1", Text: "x"}
		assert.NotEqual(t, frame.Key(), label.Key())
	})

	t.Run("keys are usable as map keys", func(t *testing.T) {
		m := map[VertexKey]int{}
		m[NewObjectVertex(NewObjectRef(3, "Port", "")).Key()]++
		m[NewObjectVertex(NewObjectRef(3, "Port", "")).Key()]++
		assert.Equal(t, 2, m[VertexKey{Kind: VertexKindObject, ID: "3"}])
	})
}

func TestEncodedIdentifiers(t *testing.T) {
	assert.Equal(t, "12freeFrameLobby", FrameVertex{ID: "12", Text: "Lobby"}.Encoded())
	assert.Equal(t, "12freeLabelNote", LabelVertex{ID: "12", Text: "Note"}.Encoded())
	assert.Equal(t, "12cloudIconWAN", CloudVertex{ID: "12", Text: "WAN"}.Encoded())
}

func TestParseVertexKey(t *testing.T) {
	key := LabelVertex{ID: "42", Text: "x"}.Key()
	parsed, err := ParseVertexKey(key.String())
	assert.NoError(t, err)
	assert.Equal(t, key, parsed)

	// Opaque ids may themselves contain colons
	parsed, err = ParseVertexKey("opaque:a:b")
	assert.NoError(t, err)
	assert.Equal(t, "a:b", parsed.ID)

	for _, bad := range []string{"", "object", "object:", "router:1"} {
		_, err := ParseVertexKey(bad)
		assert.ErrorIs(t, err, ErrInvalidVertexKey, bad)
	}
}
