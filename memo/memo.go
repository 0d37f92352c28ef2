// Package memo implements the on-chain memo wire format shared by both
// exchange roles.
//
// A memo is a UTF-8 text record of exactly three colon-delimited fields,
// TAG:field1:field2. The decoder splits on at most two delimiters, so the
// trailing field may itself contain colons. The first two fields must not:
// a service type or proof status containing a colon shifts the split and is
// a documented limitation of the format, not something the codec repairs.
package memo

import "strings"

const delimiter = ":"

const (
	TagRequest  = "REQUEST"
	TagResponse = "RESPONSE"
	TagProof    = "PROOF"
)

const (
	StatusVerified = "verified"
	StatusFailed   = "failed"
)

// Message is a decoded memo record. Field meanings depend on the tag:
//
//	REQUEST:  Field1 = service type, Field2 = input
//	RESPONSE: Field1 = service type, Field2 = result
//	PROOF:    Field1 = status,       Field2 = reference signature
type Message struct {
	Tag    string
	Field1 string
	Field2 string
}

// ServiceType returns the service type of a REQUEST or RESPONSE message.
func (m Message) ServiceType() string { return m.Field1 }

// Payload returns the input of a REQUEST or the result of a RESPONSE.
func (m Message) Payload() string { return m.Field2 }

// Status returns the status field of a PROOF message.
func (m Message) Status() string { return m.Field1 }

// ReferenceSignature returns the transaction signature a PROOF refers to.
func (m Message) ReferenceSignature() string { return m.Field2 }

// EncodeRequest builds a REQUEST memo for the given service type and input.
func EncodeRequest(serviceType, input string) string {
	return TagRequest + delimiter + serviceType + delimiter + input
}

// EncodeResponse builds a RESPONSE memo carrying a service result.
func EncodeResponse(serviceType, result string) string {
	return TagResponse + delimiter + serviceType + delimiter + result
}

// EncodeProof builds a PROOF memo referencing the response transaction
// signature that was verified.
func EncodeProof(referenceSignature string, verified bool) string {
	status := StatusFailed
	if verified {
		status = StatusVerified
	}
	return TagProof + delimiter + status + delimiter + referenceSignature
}

// Decode parses a memo text into a Message. The second return value is
// false when the text does not split into exactly three fields or the tag
// is unknown. Callers treat a failed decode as "not a protocol message,
// keep polling", never as a fatal condition.
func Decode(text string) (Message, bool) {
	parts := strings.SplitN(text, delimiter, 3)
	if len(parts) != 3 {
		return Message{}, false
	}
	switch parts[0] {
	case TagRequest, TagResponse, TagProof:
	default:
		return Message{}, false
	}
	return Message{Tag: parts[0], Field1: parts[1], Field2: parts[2]}, true
}
