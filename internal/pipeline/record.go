package pipeline

import (
	"encoding/json"
	"fmt"

	"reelforge/internal/history"
)

func toRecord(res Result, workDir string) (history.Record, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return history.Record{}, fmt.Errorf("encode result payload: %w", err)
	}
	rec := history.Record{
		ID:         res.ID,
		Operation:  res.Operation,
		Success:    res.Success,
		Outcome:    string(res.Outcome),
		Message:    res.Message,
		Payload:    payload,
		WorkDir:    workDir,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
	if res.Error != nil {
		rec.ErrorKind = res.Error.Kind
		rec.ErrorDetail = res.Error.Message
	}
	return rec, nil
}

// FromRecord restores a Result from its history row.
func FromRecord(rec history.Record) (Result, error) {
	var res Result
	if len(rec.Payload) > 0 {
		if err := json.Unmarshal(rec.Payload, &res); err != nil {
			return Result{}, fmt.Errorf("decode history payload %s: %w", rec.ID, err)
		}
	}
	res.ID = rec.ID
	res.Operation = rec.Operation
	res.Success = rec.Success
	res.Outcome = Outcome(rec.Outcome)
	res.Message = rec.Message
	res.StartedAt = rec.StartedAt
	res.FinishedAt = rec.FinishedAt
	return res, nil
}
