package session

import (
	"encoding/json"
	"fmt"
)

// recordVersion is bumped when the stored record layout changes.
const recordVersion = 1

type storedRecord struct {
	Version int `json:"v"`
	*Credential
}

// EncodeRecord serializes c for persistent stores.
func EncodeRecord(c *Credential) ([]byte, error) {
	data, err := json.Marshal(storedRecord{Version: recordVersion, Credential: c})
	if err != nil {
		return nil, fmt.Errorf("failed to encode session record: %w", err)
	}
	return data, nil
}

// DecodeRecord parses a record written by EncodeRecord.
func DecodeRecord(data []byte) (*Credential, error) {
	rec := storedRecord{Credential: &Credential{}}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode session record: %w", err)
	}
	if rec.Version != recordVersion {
		return nil, fmt.Errorf("unsupported session record version %d", rec.Version)
	}
	if rec.ID == "" || rec.Principal == "" {
		return nil, fmt.Errorf("session record is missing id or principal")
	}
	return rec.Credential, nil
}
