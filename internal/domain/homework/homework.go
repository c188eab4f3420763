// internal/domain/homework/homework.go
package homework

import (
	"bytes"
	"encoding/json"
	"strings"
)

const (
	keyHomeworks   = "homeworks"
	keyCurrentDate = "current_date"
	keyName        = "homework_name"
	keyStatus      = "status"

	ownerPrefix   = "username__"
	archiveSuffix = ".zip"
)

// PollState is the state carried between poll cycles.
// LastNotifiedVerdict stays empty until the first notification is delivered.
type PollState struct {
	LastPolledTimestamp int64
	LastNotifiedVerdict Verdict
}

// StatusResponse is a structurally valid answer of the homework status API.
// Elements of Homeworks are decoded lazily by Extract.
type StatusResponse struct {
	Homeworks   []json.RawMessage
	CurrentDate int64
}

// Record is a decoded homework element.
type Record struct {
	Name      string
	Status    Verdict
	RawStatus string
}

// Validate checks the payload shape and decodes it into a StatusResponse.
func Validate(payload json.RawMessage) (*StatusResponse, error) {
	if leadingByte(payload) != '{' {
		return nil, &ValidationError{Reason: ReasonNotAnObject}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, &ValidationError{Reason: ReasonNotAnObject}
	}

	rawHomeworks, ok := fields[keyHomeworks]
	if !ok {
		return nil, &ValidationError{Reason: ReasonMissingKey, Field: keyHomeworks}
	}
	rawDate, ok := fields[keyCurrentDate]
	if !ok {
		return nil, &ValidationError{Reason: ReasonMissingKey, Field: keyCurrentDate}
	}

	resp := &StatusResponse{}
	if leadingByte(rawHomeworks) != '[' {
		return nil, &ValidationError{Reason: ReasonWrongType, Field: keyHomeworks}
	}
	if err := json.Unmarshal(rawHomeworks, &resp.Homeworks); err != nil {
		return nil, &ValidationError{Reason: ReasonWrongType, Field: keyHomeworks}
	}
	if err := json.Unmarshal(rawDate, &resp.CurrentDate); err != nil || leadingByte(rawDate) == 'n' {
		return nil, &ValidationError{Reason: ReasonWrongType, Field: keyCurrentDate}
	}
	return resp, nil
}

// Extract decodes the most recent homework of resp.
// ok is false, with a nil error, when the response carries no homework updates.
func Extract(resp *StatusResponse) (name string, verdict Verdict, ok bool, err error) {
	if resp == nil || len(resp.Homeworks) == 0 {
		return "", "", false, nil
	}
	rec, err := decodeRecord(resp.Homeworks[0])
	if err != nil {
		return "", "", false, err
	}
	return NormalizeName(rec.Name), rec.Status, true, nil
}

func decodeRecord(raw json.RawMessage) (*Record, error) {
	if leadingByte(raw) != '{' {
		return nil, &ExtractError{Kind: ExtractMissingField}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &ExtractError{Kind: ExtractMissingField}
	}

	name, ok := stringField(fields, keyName)
	if !ok {
		return nil, &ExtractError{Kind: ExtractMissingField, Field: keyName}
	}
	rawStatus, ok := stringField(fields, keyStatus)
	if !ok {
		return nil, &ExtractError{Kind: ExtractMissingField, Field: keyStatus}
	}
	verdict, ok := ParseVerdict(rawStatus)
	if !ok {
		return nil, &ExtractError{Kind: ExtractUnknownVerdict, RawStatus: rawStatus}
	}
	return &Record{Name: name, Status: verdict, RawStatus: rawStatus}, nil
}

// NormalizeName strips the owner prefix and the archive suffix from a homework name.
func NormalizeName(name string) string {
	name = strings.TrimPrefix(name, ownerPrefix)
	return strings.TrimSuffix(name, archiveSuffix)
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok || leadingByte(raw) != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func leadingByte(raw []byte) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
