package support

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// AuditEntry is one line in the append-only run log.
type AuditEntry struct {
	TimestampUtc   string `json:"timestampUtc"`
	Mode           string `json:"mode"`
	Status         string `json:"status,omitempty"`
	Blocker        int    `json:"blocker"`
	Critical       int    `json:"critical"`
	Major          int    `json:"major"`
	Minor          int    `json:"minor"`
	Info           int    `json:"info"`
	Scanned        int    `json:"scanned,omitempty"`
	Soft           bool   `json:"soft,omitempty"`
	CertificateSHA string `json:"certificate_hash,omitempty"`
	Result         string `json:"result,omitempty"`
}

// AppendAudit appends entry as a JSON line to <outDir>/audit.log, stamping it
// with the current UTC time.
func AppendAudit(workspace, outDir string, entry AuditEntry) error {
	entry.TimestampUtc = time.Now().UTC().Format(time.RFC3339)
	path := filepath.Join(workspace, outDir, "audit.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}
