package model

import "encoding/json"

// Outcome is the result of one rename within a single-file run or a batch.
type Outcome struct {
	OldPath string
	NewPath string
	Action  Action
	Skipped bool
	Err     error
}

// OK reports whether the rename happened.
func (o Outcome) OK() bool {
	return o.Err == nil && !o.Skipped
}

type outcomeJSON struct {
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path,omitempty"`
	Action  Action `json:"action"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MarshalJSON renders Err as its message.
func (o Outcome) MarshalJSON() ([]byte, error) {
	out := outcomeJSON{
		OldPath: o.OldPath,
		NewPath: o.NewPath,
		Action:  o.Action,
		Skipped: o.Skipped,
	}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	return json.Marshal(out)
}
