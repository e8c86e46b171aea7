package producer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"credverify/internal/platform/config"
)

func TestNewRequiresBrokers(t *testing.T) {
	_, err := New(config.KafkaConfig{Brokers: " , "}, nil)
	assert.ErrorContains(t, err, "brokers not configured")
}

func TestNewRejectsUnknownAcks(t *testing.T) {
	_, err := New(config.KafkaConfig{Brokers: "localhost:9092", Acks: "most"}, nil)
	assert.ErrorContains(t, err, `unknown kafka acks "most"`)
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitBrokers(" a:9092,, b:9092 "))
	assert.Empty(t, splitBrokers(""))
}

func TestParseAcks(t *testing.T) {
	cases := map[string]kgo.Acks{
		"0":      kgo.NoAck(),
		"1":      kgo.LeaderAck(),
		"leader": kgo.LeaderAck(),
		"":       kgo.AllISRAcks(),
		"ALL":    kgo.AllISRAcks(),
		"-1":     kgo.AllISRAcks(),
	}
	for in, want := range cases {
		got, err := parseAcks(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestMessageRecordCarriesHeaders(t *testing.T) {
	msg := &Message{
		Topic:   "credverify.audit",
		Key:     []byte("StateU"),
		Value:   []byte(`{}`),
		Headers: map[string]string{"action": "degree_issued"},
	}
	r := msg.record()
	assert.Equal(t, "credverify.audit", r.Topic)
	assert.Equal(t, "StateU", string(r.Key))
	require.Len(t, r.Headers, 1)
	assert.Equal(t, "action", r.Headers[0].Key)
	assert.Equal(t, "degree_issued", string(r.Headers[0].Value))
}
