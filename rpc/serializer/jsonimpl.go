package serializer

import (
	"encoding/json"
	"github.com/ValentinKolb/kvcache/rpc/common"
)

// NewJSONSerializer creates a new serializer using json encoding.
// Byte slices (Value, Values) are base64 encoded by encoding/json.
func NewJSONSerializer() IRPCSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IRPCSerializer interface using json encoding
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	return json.Marshal(msg)
}

func (j jsonSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	// json.Unmarshal only sets present fields, omitted ones must not survive from a reused message
	*msg = common.Message{}
	return json.Unmarshal(b, msg)
}
