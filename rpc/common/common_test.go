package common

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/kvcache/lib/store"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseCarriesErrorCode(t *testing.T) {
	resp := NewIncrResponse(0, store.NewError(store.RetCWrongType, "not a counter"))
	assert.Equal(t, "not a counter", resp.Err)
	assert.Equal(t, uint64(store.RetCWrongType), resp.Code)

	err := resp.Error()
	require.Error(t, err)
	assert.Equal(t, store.RetCWrongType, store.CodeOf(err))

	// wrapped store errors keep their code
	resp = NewSetResponse(fmt.Errorf("set: %w", store.ErrUnreachable))
	assert.True(t, store.IsUnreachable(resp.Error()))

	// plain errors become internal errors
	resp = NewDeleteResponse(errors.New("boom"))
	assert.Equal(t, store.RetCInternalError, store.CodeOf(resp.Error()))

	assert.NoError(t, NewFlushDBResponse(nil).Error())
}

func TestErrorResponse(t *testing.T) {
	resp := NewErrorResponse(store.RetCUnsupportedOperation, "shard not found")
	assert.Equal(t, MsgTError, resp.MsgType)
	assert.Equal(t, store.RetCUnsupportedOperation, store.CodeOf(resp.Error()))
}

func TestSetNXTTL(t *testing.T) {
	req := NewSetNXRequest("lock", []byte("owner"), 1500*time.Millisecond)
	assert.Equal(t, uint64(1500), req.TTL)
	assert.Equal(t, 1500*time.Millisecond, req.TTLDuration())
}

func TestMessageTypeJSON(t *testing.T) {
	for msgType, name := range messageTypeNames {
		data, err := msgType.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, `"`+name+`"`, string(data))

		var parsed MessageType
		require.NoError(t, parsed.UnmarshalJSON(data))
		assert.Equal(t, msgType, parsed)
	}

	var parsed MessageType
	assert.Error(t, parsed.UnmarshalJSON([]byte(`"acquire"`)))
}

func TestParseShards(t *testing.T) {
	shards, err := ParseShards("1=lstore, 2=lstore")
	require.NoError(t, err)
	assert.Equal(t, []ServerShard{{1, ShardTypeLocalIStore}, {2, ShardTypeLocalIStore}}, shards)

	for _, bad := range []string{"", "1", "x=lstore", "1=dstore"} {
		_, err := ParseShards(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseLogLevel(t *testing.T) {
	_, err := ParseLogLevel("debug")
	assert.NoError(t, err)
	_, err = ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestConfigString(t *testing.T) {
	server := ServerConfig{
		Shards:        []ServerShard{{ShardID: 100, Type: ShardTypeLocalIStore}},
		TimeoutSecond: 5,
		Endpoint:      "0.0.0.0:8080",
		LogLevel:      "info",
	}
	out := server.String()
	assert.Contains(t, out, "RPC SERVER")
	assert.Contains(t, out, "0.0.0.0:8080/metrics")
	assert.Contains(t, out, "number of cpus")
	assert.Regexp(t, `100\s+: lstore`, out)

	client := ClientConfig{Endpoints: []string{"http://a:8080", "http://b:8080"}, TimeoutSecond: 2, RetryCount: 3}
	out = client.String()
	assert.Contains(t, out, "2 sec")
	assert.Regexp(t, `1\s+: http://b:8080`, out)
	assert.Equal(t, 2*time.Second, client.Timeout())
}
