package server

import (
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/kvcache/lib/store"
	"github.com/ValentinKolb/kvcache/rpc/common"
)

func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.Message, s store.IStore) *common.Message {
	// Check for nil store
	if s == nil {
		return common.NewErrorResponse(store.RetCInternalError, "handler: store is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTKVSet:
		err := s.Set(req.Key, req.Value)
		return common.NewSetResponse(err)
	case common.MsgTKVGet:
		val, ok, err := s.Get(req.Key)
		return common.NewGetResponse(val, ok, err)
	case common.MsgTKVIncr:
		n, err := s.Incr(req.Key)
		return common.NewIncrResponse(n, err)
	case common.MsgTKVRPush:
		n, err := s.RPush(req.Key, req.Value)
		return common.NewRPushResponse(n, err)
	case common.MsgTKVLRange:
		values, err := s.LRange(req.Key, req.Start, req.Stop)
		if err == nil && values == nil {
			// an empty list is not the same as "no list" on the wire
			values = [][]byte{}
		}
		return common.NewLRangeResponse(values, err)
	case common.MsgTKVFlushDB:
		err := s.FlushDB()
		return common.NewFlushDBResponse(err)
	case common.MsgTKVSetNX:
		ok, err := s.SetNX(req.Key, req.Value, req.TTLDuration())
		return common.NewSetNXResponse(ok, err)
	case common.MsgTKVDelete:
		err := s.Delete(req.Key)
		return common.NewDeleteResponse(err)
	case common.MsgTKVInfo:
		info, err := s.GetDBInfo()
		if err != nil {
			return common.NewInfoResponse(nil, err)
		}
		data, err := json.Marshal(info)
		return common.NewInfoResponse(data, err)
	default:
		return common.NewErrorResponse(
			store.RetCUnsupportedOperation,
			fmt.Sprintf("RPC IStoreAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}
