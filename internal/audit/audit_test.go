package audit_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/valyala/fastjson"

	"github.com/filechanger/filechanger/internal/audit"
	"github.com/filechanger/filechanger/pkg/logging"
	"github.com/filechanger/filechanger/pkg/model"
	"github.com/filechanger/filechanger/pkg/rotate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogger(buf *bytes.Buffer, level logging.Level) *logging.Logger {
	l := logging.NewLogger(level)
	l.SetOutput(buf)
	return l
}

func TestRecord_ExactShape(t *testing.T) {
	var buf bytes.Buffer
	a := audit.NewLogger(newLogger(&buf, logging.LevelInfo))

	a.Record("Shifted Single File", "/tmp/x/Bbc.txt", "/tmp/x/Aab.txt")

	assert.Equal(t, `{"action":"Shifted Single File","old_name":"/tmp/x/Bbc.txt","new_name":"/tmp/x/Aab.txt"}`+"\n", buf.String())

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Len(t, m, 3)
}

func TestRecord_DroppedAboveInfo(t *testing.T) {
	var buf bytes.Buffer
	a := audit.NewLogger(newLogger(&buf, logging.LevelWarn))

	a.Record("Shifted Single File", "a", "z")

	assert.Empty(t, buf.String())
}

func TestRecord_EscapesNames(t *testing.T) {
	var buf bytes.Buffer
	a := audit.NewLogger(newLogger(&buf, logging.LevelDebug))

	a.Record("Shifted Directory File", "dir/\"quoted\"\n.txt", "dir/ñ.txt")

	var rec model.AuditRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "dir/\"quoted\"\n.txt", rec.OldName)
	assert.Equal(t, "dir/ñ.txt", rec.NewName)
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestRecord_ConcurrentLinesStayWhole(t *testing.T) {
	var buf bytes.Buffer
	a := audit.NewLogger(newLogger(&buf, logging.LevelInfo))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Record("Shifted Directory File", strings.Repeat("o", 500), strings.Repeat("n", 500))
		}()
	}
	wg.Wait()

	var p fastjson.Parser
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 100)
	for _, line := range lines {
		_, ok := audit.ParseLine(&p, []byte(line))
		assert.True(t, ok, "corrupt line")
	}
}

func TestParseLine(t *testing.T) {
	var p fastjson.Parser
	tests := []struct {
		line string
		ok   bool
	}{
		{`{"action":"Shifted Single File","old_name":"a","new_name":"z"}`, true},
		{`{"timestamp":"2026-01-01T00:00:00Z","level":"error","message":"boom"}`, false},
		{`{"action":"x","old_name":"a"}`, false},
		{`{"action":"x","old_name":"a","new_name":1}`, false},
		{`{"action":"x","old_name":"a","new_name":"z","extra":true}`, false},
		{`["action","old_name","new_name"]`, false},
		{`not json`, false},
		{``, false},
	}
	for _, tt := range tests {
		_, ok := audit.ParseLine(&p, []byte(tt.line))
		assert.Equal(t, tt.ok, ok, tt.line)
	}
}

func TestReader_SkipsDiagnostics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file_changer.log")
	w, err := rotate.Open(path, rotate.Options{})
	require.NoError(t, err)
	log := logging.NewLogger(logging.LevelInfo)
	log.SetOutput(w)
	a := audit.NewLogger(log)

	a.Record("Shifted Directory File", "d/a.txt", "d/z.txt")
	log.Warn("the directory d/missing does not exist")
	a.Record("Shifted Directory File", "d/Zoo.png", "d/Ynn.png")
	require.NoError(t, w.Close())

	records, err := audit.NewReader(path, 5).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []model.AuditRecord{
		{Action: "Shifted Directory File", OldName: "d/a.txt", NewName: "d/z.txt"},
		{Action: "Shifted Directory File", OldName: "d/Zoo.png", NewName: "d/Ynn.png"},
	}, records)
}

func TestReader_AcrossCompressedBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file_changer.log")
	w, err := rotate.Open(path, rotate.Options{MaxSize: 80, MaxBackups: 5, Compress: true})
	require.NoError(t, err)
	log := logging.NewLogger(logging.LevelInfo)
	log.SetOutput(w)
	a := audit.NewLogger(log)

	for i := 0; i < 6; i++ {
		a.Record("Shifted Directory File", filepath.Join("d", string(rune('b'+i))), filepath.Join("d", string(rune('a'+i))))
	}
	require.NoError(t, w.Close())
	require.NotEmpty(t, rotate.Backups(path, 5))

	records, err := audit.NewReader(path, 5).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, filepath.Join("d", "b"), records[0].OldName, "oldest first")
	assert.Equal(t, filepath.Join("d", "g"), records[5].OldName)

	tail, err := audit.NewReader(path, 5).Tail(2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, filepath.Join("d", "f"), tail[0].OldName)
}

func TestReader_MissingFile(t *testing.T) {
	records, err := audit.NewReader(filepath.Join(t.TempDir(), "none.log"), 5).ReadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReader_CorruptBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file_changer.log")
	require.NoError(t, os.WriteFile(path+".1.gz", []byte("not gzip"), 0644))

	_, err := audit.NewReader(path, 5).ReadAll()
	assert.Error(t, err)
}
