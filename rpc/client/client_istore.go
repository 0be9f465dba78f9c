package client

import (
	"encoding/json"
	"github.com/ValentinKolb/kvcache/lib/db"
	"github.com/ValentinKolb/kvcache/lib/store"
	"github.com/ValentinKolb/kvcache/rpc/common"
	"github.com/ValentinKolb/kvcache/rpc/serializer"
	"github.com/ValentinKolb/kvcache/rpc/transport"
	"time"
)

// NewRPCStore connects the transport and returns a store.IStore for the shard shardId.
// serializer must match the one of the server.
func NewRPCStore(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (store.IStore, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC store
	return &rpcStore{
		shardId:    shardId,
		transport:  transport,
		serializer: serializer,
	}, nil
}

// rpcStore forwards all store operations to the shard shardId of a kvcache server
type rpcStore struct {
	shardId    uint64
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcStore) Set(key string, value []byte) (err error) {
	_, err = i.invoke(common.NewSetRequest(key, value))
	return err
}

func (i *rpcStore) Get(key string) (value []byte, loaded bool, err error) {
	resp, err := i.invoke(common.NewGetRequest(key))
	if err != nil {
		return nil, false, err
	}
	if resp.Ok && resp.Value == nil {
		// empty values may arrive as nil (json, gob)
		return []byte{}, true, nil
	}
	return resp.Value, resp.Ok, nil
}

func (i *rpcStore) Incr(key string) (value int64, err error) {
	resp, err := i.invoke(common.NewIncrRequest(key))
	if err != nil {
		return 0, err
	}
	return resp.Num, nil
}

func (i *rpcStore) RPush(key string, value []byte) (length int64, err error) {
	resp, err := i.invoke(common.NewRPushRequest(key, value))
	if err != nil {
		return 0, err
	}
	return resp.Num, nil
}

func (i *rpcStore) LRange(key string, start, stop int64) (values [][]byte, err error) {
	resp, err := i.invoke(common.NewLRangeRequest(key, start, stop))
	if err != nil {
		return nil, err
	}
	if resp.Values == nil {
		return [][]byte{}, nil
	}
	return resp.Values, nil
}

func (i *rpcStore) FlushDB() (err error) {
	_, err = i.invoke(common.NewFlushDBRequest())
	return err
}

func (i *rpcStore) SetNX(key string, value []byte, ttl time.Duration) (ok bool, err error) {
	resp, err := i.invoke(common.NewSetNXRequest(key, value, ttl))
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcStore) Delete(key string) (err error) {
	_, err = i.invoke(common.NewDeleteRequest(key))
	return err
}

func (i *rpcStore) GetDBInfo() (info db.DatabaseInfo, err error) {
	resp, err := i.invoke(common.NewInfoRequest())
	if err != nil {
		return db.DatabaseInfo{}, err
	}
	if err := json.Unmarshal(resp.Value, &info); err != nil {
		return db.DatabaseInfo{}, store.Errorf(store.RetCInternalError, "RPC info - %v", err)
	}
	return info, nil
}

// Close closes the transport
func (i *rpcStore) Close() error {
	return i.transport.Close()
}
