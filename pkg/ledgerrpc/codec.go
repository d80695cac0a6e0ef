// Package ledgerrpc is the RPC contract of the ledger service: message
// types, procedure names, and Connect client and handler constructors.
//
// Messages are plain Go structs carried as JSON, so both sides must be
// built with this package's codec.
package ledgerrpc

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// CodecName is the Connect codec name. It replaces Connect's built-in
// protobuf JSON codec.
const CodecName = "json"

type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return CodecName }

func (jsonCodec) Marshal(msg any) ([]byte, error) { return json.Marshal(msg) }

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// WithJSON installs the JSON codec on a client or handler.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
