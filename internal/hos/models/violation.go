package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RuleID names a regulatory rule.
type RuleID string

const (
	RuleDrivingLimit   RuleID = "DRIVING_LIMIT"
	RuleOnDutyWindow   RuleID = "ON_DUTY_WINDOW"
	RuleMandatoryBreak RuleID = "MANDATORY_BREAK"
	RuleShortCycle     RuleID = "SHORT_CYCLE_LIMIT"
	RuleLongCycle      RuleID = "LONG_CYCLE_LIMIT"
)

// Severity grades a violation for collaborators.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SeverityFor returns the default severity of a rule breach.
func SeverityFor(rule RuleID) Severity {
	if rule == RuleMandatoryBreak {
		return SeverityWarning
	}
	return SeverityCritical
}

// ViolationStatus is the lifecycle stage captured by a violation record.
type ViolationStatus string

const (
	// ViolationActive means the breach is still open at detection time.
	ViolationActive ViolationStatus = "active"
	// ViolationClosed means a reset, break or rolling drop ended the breach at WindowEnd.
	ViolationClosed ViolationStatus = "closed"
	// ViolationWithdrawn means a later evaluation no longer contains the breach: a correction
	// rewrote history, or a backfilled event ended a status a live read had extended to the
	// wall clock. SourceSequence names the event, so the two are told apart from the log.
	ViolationWithdrawn ViolationStatus = "withdrawn"
)

// violationNamespace seeds name-based violation identifiers.
var violationNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:eldcore:violation"))

// Violation is an immutable record that a budget was exceeded within a window.
// Later records supersede earlier ones; nothing is edited in place.
type Violation struct {
	ID             uuid.UUID       `json:"id"`
	DriverID       DriverID        `json:"driver_id"`
	RuleID         RuleID          `json:"rule_id"`
	WindowStart    time.Time       `json:"window_start"`
	WindowEnd      time.Time       `json:"window_end"`
	DetectedAt     time.Time       `json:"detected_at"`
	Severity       Severity        `json:"severity"`
	Status         ViolationStatus `json:"status"`
	Supersedes     *uuid.UUID      `json:"supersedes,omitempty"`
	SourceSequence int64           `json:"source_sequence"`
}

// ViolationKey identifies a breach across its lifecycle records.
type ViolationKey struct {
	RuleID      RuleID
	WindowStart time.Time
}

func (v Violation) Key() ViolationKey {
	return ViolationKey{RuleID: v.RuleID, WindowStart: v.WindowStart.UTC()}
}

// NewViolationID derives the record identity from its content. Active records omit
// WindowEnd because it tracks the evaluation instant.
func NewViolationID(v Violation) uuid.UUID {
	var b strings.Builder
	b.WriteString(string(v.DriverID))
	b.WriteByte('|')
	b.WriteString(string(v.RuleID))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(v.WindowStart.UnixNano(), 10))
	b.WriteByte('|')
	b.WriteString(string(v.Status))
	if v.Status != ViolationActive {
		b.WriteByte('|')
		b.WriteString(strconv.FormatInt(v.WindowEnd.UnixNano(), 10))
	}
	if v.Supersedes != nil {
		b.WriteByte('|')
		b.WriteString(v.Supersedes.String())
	}
	return uuid.NewSHA1(violationNamespace, []byte(b.String()))
}

// WithID returns v with its identity assigned.
func (v Violation) WithID() Violation {
	v.ID = NewViolationID(v)
	return v
}
