// Package artifact writes the JSON files shared with agents and operators.
package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
)

// File names written by the ecosystem.
const (
	ConfigFileName = "ecosystem-config.json"
	ReportFileName = "latest-report.json"
)

// Writer writes indented JSON documents on an afero filesystem.
type Writer struct {
	fs afero.Fs
}

// NewWriter returns a writer on fs. Use afero.NewOsFs in production.
func NewWriter(fs afero.Fs) *Writer {
	return &Writer{fs: fs}
}

// Fs returns the underlying filesystem.
func (w *Writer) Fs() afero.Fs {
	return w.fs
}

// WriteJSON creates the parent directory and replaces path with v. The
// document is written to a temporary sibling and renamed so readers never
// see a partial file.
func (w *Writer) WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := w.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(w.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := w.fs.Rename(tmp, path); err != nil {
		_ = w.fs.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// ReadJSON decodes path into v.
func (w *Writer) ReadJSON(path string, v any) error {
	data, err := afero.ReadFile(w.fs, path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// RevenueTargets are the targets published to agents.
type RevenueTargets struct {
	Daily   float64 `json:"daily"`
	Monthly float64 `json:"monthly"`
	Annual  float64 `json:"annual"`
}

// SharedConfig is the ecosystem-wide configuration written at boot.
type SharedConfig struct {
	EcosystemID            string         `json:"ecosystem_id"`
	CommunicationHub       string         `json:"communication_hub"`
	RevenueTrackingEnabled bool           `json:"revenue_tracking_enabled"`
	AutonomousMode         bool           `json:"autonomous_mode"`
	CollaborationEnabled   bool           `json:"collaboration_enabled"`
	SharedMemoryPath       string         `json:"shared_memory_path"`
	RevenueTargets         RevenueTargets `json:"revenue_targets"`
}

// WriteSharedConfig writes cfg to dir/ecosystem-config.json.
func (w *Writer) WriteSharedConfig(dir string, cfg SharedConfig) (string, error) {
	path := filepath.Join(dir, ConfigFileName)
	return path, w.WriteJSON(path, cfg)
}

// AgentConfig is the per-agent configuration dropped in its work directory.
type AgentConfig struct {
	domain.Agent
	EcosystemIntegration bool   `json:"ecosystem_integration"`
	CommunicationHub     string `json:"communication_hub"`
	RevenueSharing       bool   `json:"revenue_sharing"`
	AutonomousMode       bool   `json:"autonomous_mode"`
}

// WriteAgentConfig writes cfg into the agent's work directory.
func (w *Writer) WriteAgentConfig(cfg AgentConfig) (string, error) {
	if cfg.WorkDir == "" {
		return "", fmt.Errorf("agent %s has no work directory", cfg.Name)
	}
	path := filepath.Join(cfg.WorkDir, ConfigFileName)
	return path, w.WriteJSON(path, cfg)
}

// ReportFile keeps the latest report in a single overwritten file.
type ReportFile struct {
	w    *Writer
	path string
}

// NewReportFile returns a sink writing dir/latest-report.json.
func NewReportFile(w *Writer, dir string) *ReportFile {
	return &ReportFile{w: w, path: filepath.Join(dir, ReportFileName)}
}

// Path returns the report location.
func (r *ReportFile) Path() string {
	return r.path
}

// SaveReport implements revenue.ReportSink.
func (r *ReportFile) SaveReport(_ context.Context, report domain.RevenueReport) error {
	return r.w.WriteJSON(r.path, report)
}

// Latest reads the last written report.
func (r *ReportFile) Latest() (domain.RevenueReport, error) {
	var report domain.RevenueReport
	err := r.w.ReadJSON(r.path, &report)
	return report, err
}
