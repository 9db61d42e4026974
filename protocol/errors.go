package protocol

import (
	"errors"
	"strconv"
)

var (
	ErrIncomplete     = errors.New("incomplete frame")
	ErrUnknownOpcode  = errors.New("unknown opcode")
	ErrWrongDirection = errors.New("opcode not allowed in this direction")
	ErrNilPacket      = errors.New("nil packet")
	ErrChunkOverflow  = errors.New("status chunk past end of message buffer")
)

// UnknownOpcodeError reports the offending opcode byte
type UnknownOpcodeError struct {
	Opcode byte
}

func (e *UnknownOpcodeError) Error() string {
	return "unknown opcode 0x" + hexByte(e.Opcode)
}

// Is makes errors.Is(err, ErrUnknownOpcode) match
func (e *UnknownOpcodeError) Is(target error) bool {
	return target == ErrUnknownOpcode
}

// DirectionError reports a known opcode arriving on the wrong side of the link
type DirectionError struct {
	Opcode    Opcode
	Direction Direction
}

func (e *DirectionError) Error() string {
	return "opcode " + e.Opcode.String() + " not allowed " + e.Direction.String()
}

func (e *DirectionError) Is(target error) bool {
	return target == ErrWrongDirection
}

// ChunkOverflowError reports the offset of a chunk that cannot fit
type ChunkOverflowError struct {
	Offset uint8
}

func (e *ChunkOverflowError) Error() string {
	return "status chunk at offset " + strconv.Itoa(int(e.Offset)) + " past end of message buffer"
}

func (e *ChunkOverflowError) Is(target error) bool {
	return target == ErrChunkOverflow
}
