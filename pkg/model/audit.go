package model

// AuditRecord is a single line in the audit log (JSONL format).
// Field order is part of the on-disk format.
type AuditRecord struct {
	Action  string `json:"action"`
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}
