package storage

import (
	"encoding/json"
	"errors"

	"sctnet/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Versioned returns the version stamp written by this build.
func Versioned() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeResonator(r model.ResonatorRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeResonator(data []byte) (model.ResonatorRecord, error) {
	var record model.ResonatorRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.ResonatorRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.ResonatorRecord{}, err
	}
	return record, nil
}

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
