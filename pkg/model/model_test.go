package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/filechanger/filechanger/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRecord_KeyOrder(t *testing.T) {
	rec := model.AuditRecord{Action: string(model.ActionSingleFile), OldName: "/a/Bbc.txt", NewName: "/a/Aab.txt"}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"action":"Shifted Single File","old_name":"/a/Bbc.txt","new_name":"/a/Aab.txt"}`, string(data))
}

func TestOutcome_MarshalJSON(t *testing.T) {
	o := model.Outcome{OldPath: "d/b.txt", Action: model.ActionDirectoryFile, Err: errors.New("destination exists")}
	data, err := json.Marshal(o)
	require.NoError(t, err)
	assert.JSONEq(t, `{"old_path":"d/b.txt","action":"Shifted Directory File","error":"destination exists"}`, string(data))
	assert.False(t, o.OK())
}

func TestOutcome_OK(t *testing.T) {
	assert.True(t, model.Outcome{OldPath: "a", NewPath: "z"}.OK())
	assert.False(t, model.Outcome{OldPath: "a", Skipped: true}.OK())
}

func TestStrategy_Valid(t *testing.T) {
	assert.True(t, model.StrategySequential.Valid())
	assert.True(t, model.StrategyParallel.Valid())
	assert.False(t, model.Strategy("threads").Valid())
}
