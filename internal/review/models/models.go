// Package models holds the review module's request and assessment types.
package models

import (
	"time"

	"github.com/google/uuid"

	"claimaudit/internal/extract"
	"claimaudit/internal/fraud"
	"claimaudit/internal/ingest"
	"claimaudit/internal/reconcile"
)

// ReviewRequest is one claim package submitted for review.
type ReviewRequest struct {
	Package ingest.DocumentPackage
	// Policy is the client's free-text rules.
	Policy string
}

// ImageAttachment is a photo forwarded unchanged to the narrative collaborator.
type ImageAttachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// NarrativeRequest is what the narrative collaborator is asked to review.
type NarrativeRequest struct {
	FileNumber    string
	Policy        string
	CombinedText  string
	EvidenceHints string
	Images        []ImageAttachment
}

// FileSummary is the audit-trail entry for one uploaded file.
type FileSummary struct {
	Name             string          `json:"name"`
	Kind             ingest.FileKind `json:"kind"`
	Pages            int             `json:"pages,omitempty"`
	OCRDegradedPages int             `json:"ocr_degraded_pages,omitempty"`
	Error            string          `json:"error,omitempty"`
}

// Fingerprint is the perceptual hash of one image in a package.
type Fingerprint struct {
	Image string `json:"image"`
	Hash  string `json:"hash"`
}

// PriorMatch is an image whose fingerprint was already seen on another claim.
type PriorMatch struct {
	Image           string    `json:"image"`
	Hash            string    `json:"hash"`
	OtherFileNumber string    `json:"other_file_number"`
	OtherImage      string    `json:"other_image"`
	SeenAt          time.Time `json:"seen_at"`
}

// Assessment is the outcome of one review. It is immutable once returned.
type Assessment struct {
	ID                 uuid.UUID             `json:"id"`
	RequestID          string                `json:"request_id,omitempty"`
	FileNumber         string                `json:"file_number"`
	BaselineScore      int                   `json:"baseline_score"`
	BaselineDefaulted  bool                  `json:"baseline_defaulted"`
	Deductions         []reconcile.Deduction `json:"deductions"`
	FinalScore         int                   `json:"final_score"`
	OverrideApplied    bool                  `json:"override_applied"`
	FraudScore         int                   `json:"fraud_score"`
	FraudRisk          fraud.Risk            `json:"fraud_risk"`
	FraudFlags         []fraud.Signal        `json:"fraud_flags"`
	FraudIssues        []string              `json:"fraud_issues"`
	MissingEvidence    []string              `json:"missing_evidence"`
	ConfirmedDocuments []string              `json:"confirmed_documents"`
	Fields             extract.Fields        `json:"fields"`
	Narrative          string                `json:"narrative"`
	Files              []FileSummary         `json:"files"`
	Fingerprints       []Fingerprint         `json:"fingerprints,omitempty"`
	PriorMatches       []PriorMatch          `json:"prior_matches,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
}
