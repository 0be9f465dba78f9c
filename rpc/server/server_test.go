package server

import (
	"encoding/json"
	"github.com/ValentinKolb/kvcache/lib/db"
	"github.com/ValentinKolb/kvcache/lib/db/engines/maple"
	"github.com/ValentinKolb/kvcache/lib/store"
	"github.com/ValentinKolb/kvcache/lib/store/lstore"
	"github.com/ValentinKolb/kvcache/rpc/common"
	"github.com/ValentinKolb/kvcache/rpc/serializer"
	"github.com/ValentinKolb/kvcache/rpc/transport"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalStore() store.IStore {
	return lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) })
}

func TestAdapterHandlesAllOperations(t *testing.T) {
	adapter := NewIStoreServerAdapter()
	s := newLocalStore()

	resp := adapter.Handle(common.NewSetRequest("a", []byte("1")), s)
	require.NoError(t, resp.Error())

	resp = adapter.Handle(common.NewIncrRequest("a"), s)
	require.NoError(t, resp.Error())
	assert.Equal(t, int64(2), resp.Num)

	resp = adapter.Handle(common.NewRPushRequest("l", []byte("x")), s)
	require.NoError(t, resp.Error())
	assert.Equal(t, int64(1), resp.Num)

	resp = adapter.Handle(common.NewLRangeRequest("l", 0, -1), s)
	require.NoError(t, resp.Error())
	assert.Equal(t, [][]byte{[]byte("x")}, resp.Values)

	resp = adapter.Handle(common.NewLRangeRequest("missing", 0, -1), s)
	require.NoError(t, resp.Error())
	assert.NotNil(t, resp.Values)
	assert.Empty(t, resp.Values)

	resp = adapter.Handle(common.NewSetNXRequest("lock", []byte("me"), time.Second), s)
	require.NoError(t, resp.Error())
	assert.True(t, resp.Ok)

	resp = adapter.Handle(common.NewDeleteRequest("lock"), s)
	require.NoError(t, resp.Error())

	resp = adapter.Handle(common.NewInfoRequest(), s)
	require.NoError(t, resp.Error())
	var info db.DatabaseInfo
	require.NoError(t, json.Unmarshal(resp.Value, &info))
	assert.Equal(t, 2, info.Keys)

	resp = adapter.Handle(common.NewFlushDBRequest(), s)
	require.NoError(t, resp.Error())

	resp = adapter.Handle(common.NewGetRequest("a"), s)
	require.NoError(t, resp.Error())
	assert.False(t, resp.Ok)
}

func TestAdapterErrors(t *testing.T) {
	adapter := NewIStoreServerAdapter()
	s := newLocalStore()

	require.NoError(t, s.Set("text", []byte("abc")))
	resp := adapter.Handle(common.NewRPushRequest("text", []byte("x")), s)
	assert.Equal(t, store.RetCWrongType, store.CodeOf(resp.Error()))

	resp = adapter.Handle(&common.Message{MsgType: common.MsgTSuccess}, s)
	assert.Equal(t, common.MsgTError, resp.MsgType)
	assert.Equal(t, store.RetCUnsupportedOperation, store.CodeOf(resp.Error()))

	resp = adapter.Handle(common.NewGetRequest("a"), nil)
	assert.Equal(t, common.MsgTError, resp.MsgType)
}

// fakeTransport captures the registered handler
type fakeTransport struct {
	transport.IRPCServerTransport
	handler transport.ServerHandleFunc
}

func (f *fakeTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	f.handler = handler
}

func TestServerRouting(t *testing.T) {
	tr := &fakeTransport{}
	ser := serializer.NewBinarySerializer()
	srv := NewRPCServer(common.ServerConfig{
		Shards:       []common.ServerShard{{ShardID: 1, Type: common.ShardTypeLocalIStore}, {ShardID: 2, Type: common.ShardTypeLocalIStore}},
		EngineShards: 2,
		LogLevel:     "info",
	}, tr, ser)
	require.NoError(t, srv.Init())
	require.NoError(t, srv.Init(), "init is idempotent")
	defer srv.Close()

	call := func(shard uint64, req *common.Message) common.Message {
		data, err := ser.Serialize(*req)
		require.NoError(t, err)
		var resp common.Message
		require.NoError(t, ser.Deserialize(tr.handler(shard, data), &resp))
		return resp
	}

	resp := call(1, common.NewSetRequest("k", []byte("v")))
	require.NoError(t, resp.Error())

	// shards are independent stores
	resp = call(2, common.NewGetRequest("k"))
	require.NoError(t, resp.Error())
	assert.False(t, resp.Ok)

	resp = call(1, common.NewGetRequest("k"))
	require.NoError(t, resp.Error())
	assert.Equal(t, "v", string(resp.Value))

	resp = call(9, common.NewGetRequest("k"))
	assert.Equal(t, common.MsgTError, resp.MsgType)

	var garbage common.Message
	require.NoError(t, ser.Deserialize(tr.handler(1, []byte{1}), &garbage))
	assert.Equal(t, common.MsgTError, garbage.MsgType)
}
