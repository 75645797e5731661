package audit

import (
	"bufio"
	"fmt"
	"os"

	"github.com/valyala/fastjson"

	"github.com/filechanger/filechanger/pkg/model"
	"github.com/filechanger/filechanger/pkg/rotate"
)

const maxLineSize = 1 << 20

// Reader scans a log file and its numbered backups for audit records.
type Reader struct {
	path    string
	backups int
	parsers fastjson.ParserPool
}

// NewReader returns a Reader over path and up to backups rotated files.
func NewReader(path string, backups int) *Reader {
	return &Reader{path: path, backups: backups}
}

// ReadAll returns every audit record, oldest first. Diagnostic entries and
// malformed lines are skipped. A missing log file yields no records.
func (r *Reader) ReadAll() ([]model.AuditRecord, error) {
	files := rotate.Backups(r.path, r.backups)
	// Backups come newest first.
	for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
		files[i], files[j] = files[j], files[i]
	}
	files = append(files, r.path)

	var records []model.AuditRecord
	for _, name := range files {
		recs, err := r.readFile(name)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	return records, nil
}

// Tail returns the last n records, oldest first. n <= 0 returns all.
func (r *Reader) Tail(n int) ([]model.AuditRecord, error) {
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}

func (r *Reader) readFile(name string) ([]model.AuditRecord, error) {
	rc, err := rotate.OpenBackup(name)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	p := r.parsers.Get()
	defer r.parsers.Put(p)

	var records []model.AuditRecord
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		if rec, ok := ParseLine(p, sc.Bytes()); ok {
			records = append(records, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return records, nil
}

// ParseLine decodes line as an audit record. It reports false for anything
// that is not an object with exactly the three string keys.
func ParseLine(p *fastjson.Parser, line []byte) (model.AuditRecord, bool) {
	v, err := p.ParseBytes(line)
	if err != nil || v.Type() != fastjson.TypeObject {
		return model.AuditRecord{}, false
	}
	obj, _ := v.Object()
	if obj.Len() != 3 {
		return model.AuditRecord{}, false
	}
	action, oldName, newName := v.Get("action"), v.Get("old_name"), v.Get("new_name")
	if action == nil || oldName == nil || newName == nil {
		return model.AuditRecord{}, false
	}
	if action.Type() != fastjson.TypeString || oldName.Type() != fastjson.TypeString || newName.Type() != fastjson.TypeString {
		return model.AuditRecord{}, false
	}
	return model.AuditRecord{
		Action:  string(action.GetStringBytes()),
		OldName: string(oldName.GetStringBytes()),
		NewName: string(newName.GetStringBytes()),
	}, true
}
