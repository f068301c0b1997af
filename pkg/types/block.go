package types

type Block uint32

const (
	BlockNil         Block = 0
	BlockPointerSize Byte  = 4

	// BlockHeaderSize is the per-block bookkeeping (number, in-use flag and
	// bytes-used count) stored ahead of the payload.
	BlockHeaderSize Byte = 12
)

type DataBlock struct {
	Number    Block
	InUse     bool
	BytesUsed Byte
	Data      []byte
}

// Payload returns the valid prefix of the block's data.
func (db *DataBlock) Payload() []byte { return db.Data[:db.BytesUsed] }
