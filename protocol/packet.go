package protocol

import (
	"math"

	"github.com/radarmesh/pointstream/status"
	"github.com/radarmesh/pointstream/wire"
)

// Byte-layout constants for the wire packet headers.
const (
	// MaxDatagramPayload is MTU (1500) minus IP+UDP headers (28).
	MaxDatagramPayload = 1472

	// ProtocolHeaderSize is the common 4-byte packet_type/protocol_version
	// prefix shared by every packet kind.
	ProtocolHeaderSize = 4

	// PointCloudHeaderSize is the point-cloud fragment header, offsets 0-23.
	PointCloudHeaderSize = 24

	// PointRecordSizeV1 is a per-point record without v_ground (5 × f32).
	PointRecordSizeV1 = 20
	// PointRecordSizeV2 is a per-point record with v_ground (6 × f32).
	PointRecordSizeV2 = 24

	// MaxPointsPerPacket bounds num_points_in_packet; derived from the MTU
	// payload budget using the smaller (v1) record size, so it is a safe
	// upper bound regardless of protocol_version.
	MaxPointsPerPacket = (MaxDatagramPayload - PointCloudHeaderSize) / PointRecordSizeV1

	// MaxPointsPerCloud bounds num_points_expected / num_points_received.
	MaxPointsPerCloud = 65535

	// EgoMotionPacketSize is the fixed total size of an ego-motion packet.
	EgoMotionPacketSize = 28

	// SetModeRequestSize is the fixed size of a set-mode request.
	SetModeRequestSize = 8
	// SetModeAckSize is the fixed size of a set-mode acknowledgement.
	SetModeAckSize = 12
)

// Header is the common 4-byte dispatch prefix of every datagram.
type Header struct {
	PacketType      PacketType
	ProtocolVersion uint16
}

// DecodeHeader reads the 4-byte prefix. Callers must check len(buf) >= 4
// before calling in contexts where a short buffer should be a distinct
// validation step; DecodeHeader itself simply
// surfaces the short-buffer error from wire.
func DecodeHeader(buf []byte) (Header, error) {
	pt, err := wire.GetU16(buf, 0)
	if err != nil {
		return Header{}, err
	}
	ver, err := wire.GetU16(buf, 2)
	if err != nil {
		return Header{}, err
	}
	return Header{PacketType: PacketType(pt), ProtocolVersion: ver}, nil
}

// Point is a single radar return.
type Point struct {
	X, Y, Z float32 // meters, radar-forward/left/up
	VRadial float32 // m/s, radar-forward, positive outward
	SNR     float32
	VGround float32 // m/s; NaN if absent in a v1 packet
}

// pointRecordSize returns the per-point wire size for protocolVersion.
func pointRecordSize(protocolVersion uint16) int {
	if protocolVersion == 1 {
		return PointRecordSizeV1
	}
	return PointRecordSizeV2
}

// DecodePoint decodes one point record at offset, honoring the
// version-dependent layout: a v1 record has no v_ground field and the
// decoded Point synthesizes VGround = NaN.
func DecodePoint(buf []byte, offset int, protocolVersion uint16) (Point, error) {
	var p Point
	var err error
	if p.X, err = wire.GetF32(buf, offset+0); err != nil {
		return Point{}, err
	}
	if p.Y, err = wire.GetF32(buf, offset+4); err != nil {
		return Point{}, err
	}
	if p.Z, err = wire.GetF32(buf, offset+8); err != nil {
		return Point{}, err
	}
	if p.VRadial, err = wire.GetF32(buf, offset+12); err != nil {
		return Point{}, err
	}
	if p.SNR, err = wire.GetF32(buf, offset+16); err != nil {
		return Point{}, err
	}
	if protocolVersion == 1 {
		p.VGround = float32(math.NaN())
		return p, nil
	}
	if p.VGround, err = wire.GetF32(buf, offset+20); err != nil {
		return Point{}, err
	}
	return p, nil
}

// PointCloudFragmentHeader is the decoded 24-byte header of a point-cloud
// fragment. Range and Mode alias the same wire slot (offset
// 22): v1 producers write a range, v2 producers may reuse the slot for a
// mode; both interpretations are decoded so callers can use whichever
// applies.
type PointCloudFragmentHeader struct {
	ProtocolVersion    uint16
	FrameIndex         uint32
	Timestamp          uint64
	MountPosition      MountPosition
	NumPointsExpected  uint16
	NumPointsInPacket  uint16
	Range              RadarRange
	Mode               RadarMode
}

// DecodePointCloudFragmentHeader decodes offsets 0-23 of a point-cloud
// fragment. The caller is responsible for the size/version/overrun
// validation sequence; this function only decodes fields assuming the
// buffer is at least PointCloudHeaderSize bytes.
func DecodePointCloudFragmentHeader(buf []byte) (PointCloudFragmentHeader, error) {
	if len(buf) < PointCloudHeaderSize {
		return PointCloudFragmentHeader{}, status.Err(status.Protocol, "point-cloud header needs %d bytes, have %d", PointCloudHeaderSize, len(buf))
	}
	hdr, err := DecodeHeader(buf)
	if err != nil {
		return PointCloudFragmentHeader{}, err
	}
	frameIndex, err := wire.GetU32(buf, 4)
	if err != nil {
		return PointCloudFragmentHeader{}, err
	}
	timestamp, err := wire.GetU64(buf, 8)
	if err != nil {
		return PointCloudFragmentHeader{}, err
	}
	mount, err := wire.GetU16(buf, 16)
	if err != nil {
		return PointCloudFragmentHeader{}, err
	}
	totalExpected, err := wire.GetU16(buf, 18)
	if err != nil {
		return PointCloudFragmentHeader{}, err
	}
	numInPacket, err := wire.GetU16(buf, 20)
	if err != nil {
		return PointCloudFragmentHeader{}, err
	}
	rangeOrMode, err := wire.GetU16(buf, 22)
	if err != nil {
		return PointCloudFragmentHeader{}, err
	}
	return PointCloudFragmentHeader{
		ProtocolVersion:   hdr.ProtocolVersion,
		FrameIndex:        frameIndex,
		Timestamp:         timestamp,
		MountPosition:     MountPosition(mount),
		NumPointsExpected: totalExpected,
		NumPointsInPacket: numInPacket,
		Range:             RadarRange(rangeOrMode),
		Mode:              RadarMode(rangeOrMode),
	}, nil
}

// FragmentBodySize returns the expected total datagram size for a fragment
// whose header declares numPointsInPacket points at protocolVersion.
func FragmentBodySize(numPointsInPacket uint16, protocolVersion uint16) int {
	return PointCloudHeaderSize + int(numPointsInPacket)*pointRecordSize(protocolVersion)
}

// Cloud is a reassembled frame.
type Cloud struct {
	FrameIndex        uint32
	Timestamp         uint64
	MountPosition     MountPosition
	NumPointsExpected uint16
	NumPointsReceived uint16
	Range             RadarRange
	Mode              RadarMode
	Points            []Point
}

// EgoMotion is a per-frame scalar velocity snapshot.
type EgoMotion struct {
	FrameIndex    uint32
	Timestamp     uint64
	MountPosition MountPosition
	VsX, VsY      float32
}

// DecodeEgoMotion decodes a full 28-byte ego-motion packet.
func DecodeEgoMotion(buf []byte) (EgoMotion, error) {
	if len(buf) < EgoMotionPacketSize {
		return EgoMotion{}, status.Err(status.Protocol, "ego-motion packet needs %d bytes, have %d", EgoMotionPacketSize, len(buf))
	}
	frameIndex, err := wire.GetU32(buf, 4)
	if err != nil {
		return EgoMotion{}, err
	}
	timestamp, err := wire.GetU64(buf, 8)
	if err != nil {
		return EgoMotion{}, err
	}
	mount, err := wire.GetU16(buf, 16)
	if err != nil {
		return EgoMotion{}, err
	}
	vsX, err := wire.GetF32(buf, 20)
	if err != nil {
		return EgoMotion{}, err
	}
	vsY, err := wire.GetF32(buf, 24)
	if err != nil {
		return EgoMotion{}, err
	}
	return EgoMotion{
		FrameIndex:    frameIndex,
		Timestamp:     timestamp,
		MountPosition: MountPosition(mount),
		VsX:           vsX,
		VsY:           vsY,
	}, nil
}

// SetModeRequest is the 8-byte set-mode control-plane request.
type SetModeRequest struct {
	MountPosition MountPosition
	RequestedMode RadarMode
}

// EncodeSetModeRequest writes r into a freshly allocated SetModeRequestSize
// buffer with PacketTypeEgoOrMode / protocol_version 1, matching the
// overload of packet_type=2 for the control plane.
func EncodeSetModeRequest(r SetModeRequest) []byte {
	buf := make([]byte, SetModeRequestSize)
	_ = wire.SetU16(buf, 0, uint16(PacketTypeEgoOrMode))
	_ = wire.SetU16(buf, 2, 1)
	_ = wire.SetU16(buf, 4, uint16(r.MountPosition))
	_ = wire.SetU16(buf, 6, uint16(r.RequestedMode))
	return buf
}

// DecodeSetModeRequest decodes an 8-byte set-mode request body (offsets
// 4-7; the caller has already dispatched on the common header).
func DecodeSetModeRequest(buf []byte) (SetModeRequest, error) {
	if len(buf) < SetModeRequestSize {
		return SetModeRequest{}, status.Err(status.Protocol, "set-mode request needs %d bytes, have %d", SetModeRequestSize, len(buf))
	}
	mount, err := wire.GetU16(buf, 4)
	if err != nil {
		return SetModeRequest{}, err
	}
	mode, err := wire.GetU16(buf, 6)
	if err != nil {
		return SetModeRequest{}, err
	}
	return SetModeRequest{MountPosition: MountPosition(mount), RequestedMode: RadarMode(mode)}, nil
}

// SetModeAck is the 12-byte set-mode acknowledgement.
type SetModeAck struct {
	ProtocolVersion uint16
	MountPosition   MountPosition
	Mode            RadarMode
	ErrorCode       SetModeErrorCode
}

// DecodeSetModeAck decodes a full 12-byte set-mode ACK datagram.
func DecodeSetModeAck(buf []byte) (SetModeAck, error) {
	if len(buf) < SetModeAckSize {
		return SetModeAck{}, status.Err(status.Protocol, "set-mode ack needs %d bytes, have %d", SetModeAckSize, len(buf))
	}
	hdr, err := DecodeHeader(buf)
	if err != nil {
		return SetModeAck{}, err
	}
	mount, err := wire.GetU16(buf, 4)
	if err != nil {
		return SetModeAck{}, err
	}
	mode, err := wire.GetU16(buf, 6)
	if err != nil {
		return SetModeAck{}, err
	}
	errCode, err := wire.GetU32(buf, 8)
	if err != nil {
		return SetModeAck{}, err
	}
	return SetModeAck{
		ProtocolVersion: hdr.ProtocolVersion,
		MountPosition:   MountPosition(mount),
		Mode:            RadarMode(mode),
		ErrorCode:       SetModeErrorCode(int32(errCode)),
	}, nil
}

// EncodeSetModeAck writes a into a freshly allocated SetModeAckSize
// buffer; it serves test fixtures and a reference responder implementation
// (a real radar emits these, not this library).
func EncodeSetModeAck(a SetModeAck) []byte {
	buf := make([]byte, SetModeAckSize)
	_ = wire.SetU16(buf, 0, uint16(PacketTypeEgoOrMode))
	_ = wire.SetU16(buf, 2, a.ProtocolVersion)
	_ = wire.SetU16(buf, 4, uint16(a.MountPosition))
	_ = wire.SetU16(buf, 6, uint16(a.Mode))
	_ = wire.SetU32(buf, 8, uint32(int32(a.ErrorCode)))
	return buf
}
