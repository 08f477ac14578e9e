package gateway

import (
	"encoding/binary"
	"unicode/utf8"

	"doorsign-go/errcode"
	"doorsign-go/services/state"
	"doorsign-go/types"
	"doorsign-go/x/fmtx"
)

// ErrNoUpdate marks a data-channel message whose presence byte is 0.
const ErrNoUpdate = errcode.Code("no_update")

// NoUpdateLabel is shown when the data channel reports nothing new.
const NoUpdateLabel = "No update"

func decodeErr(msg string) error { return errcode.New(errcode.Decode, "sync", msg) }

// DecodeStatus parses the compact status payload:
//
//	status uvarint (0 Busy, 1 Free, 2 Focus)
//	start  [hour u8, minute u8]
//	duration u8 (minutes)
//	label  uvarint length + UTF-8 bytes
//
// Trailing bytes are ignored. The label is cut to the label capacity.
func DecodeStatus(b []byte) (types.StatusInfo, string, error) {
	var info types.StatusInfo
	st, n := binary.Uvarint(b)
	if n <= 0 {
		return info, "", decodeErr("missing status")
	}
	if st > uint64(types.StatusFocus) {
		return info, "", decodeErr(fmtx.Sprintf("unknown status %d", st))
	}
	b = b[n:]
	if len(b) < 3 {
		return info, "", decodeErr("short payload")
	}
	hour, minute, dur := b[0], b[1], b[2]
	if hour > 23 || minute > 59 {
		return info, "", decodeErr(fmtx.Sprintf("bad start time %d:%d", hour, minute))
	}
	b = b[3:]
	ln, n := binary.Uvarint(b)
	if n <= 0 {
		return info, "", decodeErr("missing label")
	}
	b = b[n:]
	if ln > uint64(len(b)) {
		return info, "", decodeErr("label overruns payload")
	}
	label := b[:ln]
	if !utf8.Valid(label) {
		return info, "", decodeErr("label is not UTF-8")
	}
	info = types.StatusInfo{
		Valid:       true,
		Status:      types.Status(st),
		StartHour:   hour,
		StartMinute: minute,
		Duration:    dur,
	}
	return info, state.Truncate(string(label), state.LabelCap), nil
}

// EncodeStatus is the inverse of DecodeStatus; used by the console and tests.
func EncodeStatus(info types.StatusInfo, label string) []byte {
	out := binary.AppendUvarint(nil, uint64(info.Status))
	out = append(out, info.StartHour, info.StartMinute, info.Duration)
	out = binary.AppendUvarint(out, uint64(len(label)))
	return append(out, label...)
}

// DecodeMessage parses the optional form used on the data channel: a
// presence byte (0 none, 1 some) followed by a status payload. A 0 presence
// byte yields ErrNoUpdate.
func DecodeMessage(b []byte) (types.StatusInfo, string, error) {
	if len(b) == 0 {
		return types.StatusInfo{}, "", decodeErr("empty message")
	}
	switch b[0] {
	case 0:
		return types.StatusInfo{}, "", ErrNoUpdate
	case 1:
		return DecodeStatus(b[1:])
	default:
		return types.StatusInfo{}, "", decodeErr(fmtx.Sprintf("bad presence byte %d", b[0]))
	}
}
