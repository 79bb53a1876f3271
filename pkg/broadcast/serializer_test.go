package broadcast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fanout/pkg/broadcast"
)

type event struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type level int

func (l level) MarshalText() ([]byte, error) {
	return []byte("level-" + string(rune('0'+int(l)))), nil
}

func TestDefaultSerializer(t *testing.T) {
	t.Parallel()

	raw, err := broadcast.DefaultSerializer[string]()(broadcast.NewMessage("plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain", string(raw))

	raw, err = broadcast.DefaultSerializer[[]byte]()(broadcast.NewMessage([]byte{1, 2}))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, raw)

	raw, err = broadcast.DefaultSerializer[level]()(broadcast.NewMessage(level(3)))
	require.NoError(t, err)
	assert.Equal(t, "level-3", string(raw))

	raw, err = broadcast.DefaultSerializer[event]()(broadcast.NewMessage(event{Name: "tick", Count: 2}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"tick","count":2}`, string(raw))
}

func TestJSONSerializer(t *testing.T) {
	t.Parallel()

	raw, err := broadcast.JSONSerializer[string]()(broadcast.NewMessage("quoted"))
	require.NoError(t, err)
	assert.Equal(t, `"quoted"`, string(raw))

	_, err = broadcast.JSONSerializer[chan int]()(broadcast.NewMessage(make(chan int)))
	assert.Error(t, err)
}

func TestBytesSerializer(t *testing.T) {
	t.Parallel()

	type topic string
	raw, err := broadcast.BytesSerializer[topic]()(broadcast.NewMessage(topic("news")))
	require.NoError(t, err)
	assert.Equal(t, "news", string(raw))
}

func TestDecoders(t *testing.T) {
	t.Parallel()

	v, err := broadcast.JSONDecoder[event]()([]byte(`{"name":"tick","count":3}`))
	require.NoError(t, err)
	assert.Equal(t, "tick", v.Name)

	_, err = broadcast.JSONDecoder[event]()([]byte(`{`))
	assert.Error(t, err)

	s, err := broadcast.RawDecoder[string]()([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "raw", s)
}
