package client

import (
	"github.com/ValentinKolb/kvcache/lib/store"
	"github.com/ValentinKolb/kvcache/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
	"time"
)

var (
	Logger = logger.GetLogger("rpc")
)

// invoke sends req to the shard of the store and returns the decoded response.
//
// Every returned error is a *store.Error: a request that did not reach the server
// has code store.RetCUnreachable, an error response keeps the code sent by the server.
// A response of another type than the request is an internal error.
func (i *rpcStore) invoke(req *common.Message) (*common.Message, error) {
	start := time.Now()

	reqBytes, err := i.serializer.Serialize(*req)
	if err != nil {
		return nil, store.Errorf(store.RetCInternalError, "rpc %s: serialize request: %v", req.MsgType, err)
	}

	respBytes, err := i.transport.Send(i.shardId, reqBytes)
	if err != nil {
		Logger.Warningf("rpc %s: shard %d unreachable: %v", req.MsgType, i.shardId, err)
		return nil, store.Errorf(store.RetCUnreachable, "rpc %s: %v", req.MsgType, err)
	}

	resp := &common.Message{}
	if err := i.serializer.Deserialize(respBytes, resp); err != nil {
		return nil, store.Errorf(store.RetCInternalError, "rpc %s: deserialize response: %v", req.MsgType, err)
	}
	Logger.Debugf("rpc %s %q on shard %d took %s", req.MsgType, req.Key, i.shardId, time.Since(start))

	if err := resp.Error(); err != nil {
		return nil, err
	}
	if resp.MsgType != req.MsgType {
		return nil, store.Errorf(store.RetCInternalError, "rpc %s: unexpected response type %s", req.MsgType, resp.MsgType)
	}
	return resp, nil
}
