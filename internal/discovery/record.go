package discovery

import (
	"net"
	"strings"
	"unicode/utf8"
)

const (
	// FieldDelimiter separates the fields of a response record
	FieldDelimiter = "\r\n"

	recordFields = 3
)

// Record is one device as described by its discovery response
type Record struct {
	// Name is the device name (e.g., "router")
	Name string

	// MACID is the hardware address as sent by the device (e.g., "AA:BB:CC:DD:EE:FF")
	MACID string

	// Status is the single status character (e.g., "1" in use, "0" free)
	Status string

	// OwnerIP is the address currently using the device, empty when unused
	OwnerIP string
}

// Response pairs a parsed record with the address it was received from
type Response struct {
	Record Record
	Source *net.UDPAddr
}

// SourceString returns the source address as "ip:port", or "" when unknown
func (r Response) SourceString() string {
	if r.Source == nil {
		return ""
	}
	return r.Source.String()
}

// ParseRecord decodes a response payload into a Record.
// The boolean is false when the payload is not a well-formed record.
func ParseRecord(payload []byte) (Record, bool) {
	rec, err := ParseRecordError(payload)
	return rec, err == nil
}

// ParseRecordError is ParseRecord with the rejection reason attached.
// Fields are copied out of payload, so the caller may reuse its buffer.
func ParseRecordError(payload []byte) (Record, error) {
	if !utf8.Valid(payload) {
		return Record{}, &ParseError{Reason: FailureInvalidUTF8}
	}

	text := string(payload)

	// Only the first three fields matter; whatever follows a third
	// delimiter is left unsplit in a fourth element and ignored.
	fields := strings.SplitN(text, FieldDelimiter, recordFields+1)
	if len(fields) < recordFields {
		return Record{}, &ParseError{Reason: FailureTooFewFields, Fields: len(fields)}
	}

	last := fields[2]
	if last == "" {
		return Record{}, &ParseError{Reason: FailureEmptyStatus, Fields: len(fields)}
	}

	// Split after the first character, not the first byte
	_, size := utf8.DecodeRuneInString(last)

	return Record{
		Name:    fields[0],
		MACID:   fields[1],
		Status:  last[:size],
		OwnerIP: last[size:],
	}, nil
}
