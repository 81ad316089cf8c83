// Package ingest turns external property data (deal files, extraction
// payloads, operating-statement HTML) into underwriting inputs.
package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"deal_underwriting/pkg/core/assumption"
	"deal_underwriting/pkg/core/utils"
)

// Property identifies the subject property of a deal.
type Property struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// Deal is everything needed to underwrite one property view.
// Assumptions only carries the sliders the author pinned; the rest come
// from assumption.Defaults.
type Deal struct {
	Property    Property                    `json:"property"`
	Baseline    assumption.Baseline         `json:"baseline"`
	Assumptions assumption.Overrides        `json:"assumptions"`
	Pricing     *assumption.PricingGuidance `json:"pricing,omitempty"`
}

// Resolve returns the full assumption set: defaults seeded from the baseline
// and pricing guidance, then the deal's pinned values on top.
func (d *Deal) Resolve(seed assumption.Seed) assumption.Assumptions {
	return assumption.Defaults(d.Baseline, d.Pricing, seed).Apply(d.Assumptions)
}

// ParseDeal decodes a deal written in JSON or Hjson. Hjson is a superset of
// JSON, so hand-written files may carry comments and unquoted keys.
func ParseDeal(data []byte) (*Deal, error) {
	converted, err := utils.ParseHJSON(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse deal: %w", err)
	}
	var deal Deal
	if err := json.Unmarshal([]byte(converted), &deal); err != nil {
		return nil, fmt.Errorf("failed to decode deal: %w", err)
	}
	return &deal, nil
}

// LoadDealFile reads and parses a deal file from disk.
func LoadDealFile(path string) (*Deal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deal file: %w", err)
	}
	deal, err := ParseDeal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return deal, nil
}

// =============================================================================
// INTEGRITY CHECKS
// =============================================================================

// Checkpoint statuses.
const (
	StatusMatch            = "MATCH"
	StatusImmaterial       = "IMMATERIAL"
	StatusMaterialMismatch = "MATERIAL_MISMATCH"
)

// AuditCheckpoint compares a reported total with the one derived from its
// components.
type AuditCheckpoint struct {
	CheckpointName  string  `json:"checkpoint_name"`
	ReportedValue   float64 `json:"reported_value"`
	CalculatedValue float64 `json:"calculated_value"`
	Variance        float64 `json:"variance"`
	Status          string  `json:"status"`
}

// materialityPct is the tolerance, in percent of the reported value, below
// which a difference is immaterial.
const materialityPct = 0.5

// VerifyIntegrity checks the reported NOI against revenue minus expenses.
// It returns nil when the baseline is incomplete.
func VerifyIntegrity(b assumption.Baseline) []AuditCheckpoint {
	if !b.Complete() {
		return nil
	}
	return []AuditCheckpoint{
		checkpoint("net_operating_income", b.NOI(), b.Revenue()-b.Expenses()),
	}
}

func checkpoint(name string, reported, calculated float64) AuditCheckpoint {
	diff := calculated - reported
	status := StatusMatch
	if math.Abs(diff) > 0.5 {
		pct := math.Inf(1)
		if reported != 0 {
			pct = math.Abs(diff / reported * 100)
		}
		if pct > materialityPct {
			status = StatusMaterialMismatch
		} else {
			status = StatusImmaterial
		}
	}
	return AuditCheckpoint{
		CheckpointName:  name,
		ReportedValue:   reported,
		CalculatedValue: calculated,
		Variance:        diff,
		Status:          status,
	}
}

// =============================================================================
// EXTRACTION PAYLOADS
// =============================================================================

// Extraction is the record the document-extraction service emits for a
// property's most recent annual period.
type Extraction struct {
	PropertyID             string                      `json:"property_id"`
	Period                 string                      `json:"period"`
	GrossScheduledRevenue  *float64                    `json:"gross_scheduled_revenue"`
	TotalOperatingExpenses *float64                    `json:"total_operating_expenses"`
	NetOperatingIncome     *float64                    `json:"net_operating_income"`
	Pricing                *assumption.PricingGuidance `json:"pricing,omitempty"`
}

// Baseline returns the extracted facts as a baseline. Absent values stay
// absent.
func (e *Extraction) Baseline() assumption.Baseline {
	return assumption.Baseline{
		GrossScheduledRevenue:  e.GrossScheduledRevenue,
		TotalOperatingExpenses: e.TotalOperatingExpenses,
		NetOperatingIncome:     e.NetOperatingIncome,
	}
}

// ParseExtraction decodes an extraction payload, repairing the malformed
// JSON the extractor sometimes emits (trailing commas, single quotes,
// fenced blocks).
func ParseExtraction(raw string) (*Extraction, error) {
	var ext Extraction
	if _, err := utils.SmartParse(raw, &ext); err != nil {
		return nil, fmt.Errorf("failed to decode extraction payload: %w", err)
	}
	return &ext, nil
}
