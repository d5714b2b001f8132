package protocol

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
)

func TestDecodeRevenueGenerated(t *testing.T) {
	now := time.Now()
	env, err := Decode([]byte(`{"type":"revenue_generated","agent":"A","amount":500}`), now)
	require.NoError(t, err)

	rev, ok := env.Revenue()
	require.True(t, ok)
	assert.Equal(t, "A", rev.Agent)
	assert.Equal(t, 500.0, rev.Amount)
	assert.Equal(t, now, env.ReceivedAt)
	assert.Equal(t, "revenue_generated", env.Type)
}

func TestDecodeRevenueWithoutNumericAmountIsGeneric(t *testing.T) {
	for _, payload := range []string{
		`{"type":"revenue_generated","agent":"A"}`,
		`{"type":"revenue_generated","agent":"A","amount":"500"}`,
	} {
		env, err := Decode([]byte(payload), time.Now())
		require.NoError(t, err)
		_, ok := env.Revenue()
		assert.False(t, ok, payload)
		assert.IsType(t, Generic{}, env.Body)
	}
}

func TestDecodeGenericAndUnknown(t *testing.T) {
	env, err := Decode([]byte(`{"type":"task_update","progress":3}`), time.Now())
	require.NoError(t, err)
	g, ok := env.Body.(Generic)
	require.True(t, ok)
	assert.Equal(t, "task_update", g.Type)
	assert.Contains(t, g.Fields, "progress")

	env, err = Decode([]byte(`{"hello":"world"}`), time.Now())
	require.NoError(t, err)
	assert.IsType(t, Unknown{}, env.Body)
}

func TestDecodeMalformed(t *testing.T) {
	for _, payload := range []string{
		`not json`,
		`[1,2,3]`,
		`"text"`,
		`42`,
		`null`,
		`{"type":7}`,
	} {
		_, err := Decode([]byte(payload), time.Now())
		assert.True(t, errors.Is(err, domain.ErrMalformedMessage), payload)
	}
}

func TestDecodeKeepsRawVerbatim(t *testing.T) {
	payload := []byte(`{"type":"x",  "n":1}`)
	env, err := Decode(payload, time.Now())
	require.NoError(t, err)
	assert.Equal(t, string(payload), string(env.Raw))

	payload[2] = 'X'
	assert.NotEqual(t, string(payload), string(env.Raw))
}

func TestNewRevenueGeneratedRoundTrip(t *testing.T) {
	data, err := NewRevenueGenerated("B", 12.5)
	require.NoError(t, err)
	env, err := Decode(data, time.Now())
	require.NoError(t, err)
	rev, ok := env.Revenue()
	require.True(t, ok)
	assert.Equal(t, RevenueGenerated{Agent: "B", Amount: 12.5}, rev)
}
