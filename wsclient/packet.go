package wsclient

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// PacketType is the first byte of every binary message.
type PacketType uint8

const (
	PacketRequest  PacketType = 1
	PacketResponse PacketType = 2
	PacketPush     PacketType = 3
)

const (
	requestHeaderLen  = 1 + 1 + 4 + 2
	responseHeaderLen = 1 + 1 + 4 + 1
	pushHeaderLen     = 1 + 1
)

var (
	ErrShortPacket       = errors.New("wsclient: short packet")
	ErrUnknownPacketType = errors.New("wsclient: unknown packet type")
)

// Packet is one decoded binary message. RequestID, Timeout and Status are
// only meaningful for the packet types that carry them.
type Packet struct {
	Type      PacketType
	Cmd       uint8
	RequestID uint32
	TimeoutMS uint16
	Status    uint8
	Body      []byte
}

func (p Packet) Encode() []byte {
	switch p.Type {
	case PacketRequest:
		b := make([]byte, requestHeaderLen, requestHeaderLen+len(p.Body))
		b[0], b[1] = byte(p.Type), p.Cmd
		binary.BigEndian.PutUint32(b[2:6], p.RequestID)
		binary.BigEndian.PutUint16(b[6:8], p.TimeoutMS)
		return append(b, p.Body...)
	case PacketResponse:
		b := make([]byte, responseHeaderLen, responseHeaderLen+len(p.Body))
		b[0], b[1] = byte(p.Type), p.Cmd
		binary.BigEndian.PutUint32(b[2:6], p.RequestID)
		b[6] = p.Status
		return append(b, p.Body...)
	default:
		b := make([]byte, pushHeaderLen, pushHeaderLen+len(p.Body))
		b[0], b[1] = byte(PacketPush), p.Cmd
		return append(b, p.Body...)
	}
}

// DecodePacket parses one binary message. Body aliases data.
func DecodePacket(data []byte) (Packet, error) {
	if len(data) < 1 {
		return Packet{}, ErrShortPacket
	}
	p := Packet{Type: PacketType(data[0])}
	switch p.Type {
	case PacketRequest:
		if len(data) < requestHeaderLen {
			return Packet{}, ErrShortPacket
		}
		p.Cmd = data[1]
		p.RequestID = binary.BigEndian.Uint32(data[2:6])
		p.TimeoutMS = binary.BigEndian.Uint16(data[6:8])
		p.Body = data[requestHeaderLen:]
	case PacketResponse:
		if len(data) < responseHeaderLen {
			return Packet{}, ErrShortPacket
		}
		p.Cmd = data[1]
		p.RequestID = binary.BigEndian.Uint32(data[2:6])
		p.Status = data[6]
		p.Body = data[responseHeaderLen:]
	case PacketPush:
		if len(data) < pushHeaderLen {
			return Packet{}, ErrShortPacket
		}
		p.Cmd = data[1]
		p.Body = data[pushHeaderLen:]
	default:
		return Packet{}, fmt.Errorf("%w: %d", ErrUnknownPacketType, data[0])
	}
	return p, nil
}
