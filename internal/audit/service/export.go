package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	auditdomain "github.com/commissionlabs/commissiond/internal/audit/domain"
)

func (s *Service) Export(ctx context.Context, req auditdomain.ExportRequest) (*auditdomain.ExportResult, error) {
	logs, err := s.repo.Range(ctx, s.db, req.StartDate, req.EndDate, req.Actions)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch req.Format {
	case auditdomain.ExportFormatCSV:
		data, err = formatCSV(logs)
	case auditdomain.ExportFormatJSON:
		data, err = formatJSON(logs)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", req.Format)
	}
	if err != nil {
		return nil, err
	}

	// Checksum lets compliance consumers verify export integrity.
	checksum := calculateChecksum(data)

	return &auditdomain.ExportResult{
		Data:     data,
		Checksum: checksum,
		Format:   req.Format,
		Count:    len(logs),
	}, nil
}

func formatCSV(logs []auditdomain.AuditLog) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"timestamp",
		"action",
		"description",
		"actor_id",
		"actor_name",
		"target_type",
		"target_id",
		"metadata",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, log := range logs {
		metadataJSON, _ := json.Marshal(log.Metadata)

		row := []string{
			log.CreatedAt.Format(time.RFC3339),
			log.Action,
			log.Description,
			log.ActorID,
			log.ActorName,
			log.TargetType,
			formatStringPtr(log.TargetID),
			string(metadataJSON),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func formatJSON(logs []auditdomain.AuditLog) ([]byte, error) {
	type ExportRecord struct {
		Timestamp   string                 `json:"timestamp"`
		Action      string                 `json:"action"`
		Description string                 `json:"description"`
		ActorID     string                 `json:"actor_id"`
		ActorName   string                 `json:"actor_name,omitempty"`
		TargetType  string                 `json:"target_type"`
		TargetID    string                 `json:"target_id,omitempty"`
		Metadata    map[string]interface{} `json:"metadata,omitempty"`
	}

	records := make([]ExportRecord, 0, len(logs))
	for _, log := range logs {
		records = append(records, ExportRecord{
			Timestamp:   log.CreatedAt.Format(time.RFC3339),
			Action:      log.Action,
			Description: log.Description,
			ActorID:     log.ActorID,
			ActorName:   log.ActorName,
			TargetType:  log.TargetType,
			TargetID:    formatStringPtr(log.TargetID),
			Metadata:    log.Metadata,
		})
	}

	return json.MarshalIndent(records, "", "  ")
}

func formatStringPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func calculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
