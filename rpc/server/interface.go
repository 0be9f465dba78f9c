package server

import (
	"github.com/ValentinKolb/kvcache/lib/store"
	"github.com/ValentinKolb/kvcache/rpc/common"
)

// IRPCServerAdapter translates a request into a call on a store
type IRPCServerAdapter interface {
	// Handle executes req against s. It always returns a response: failures are
	// reported as an error response carrying the store.RetCode of the error.
	Handle(req *common.Message, s store.IStore) (resp *common.Message)
}
