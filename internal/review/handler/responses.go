package handler

import (
	"time"

	"github.com/google/uuid"

	"claimaudit/internal/extract"
	"claimaudit/internal/review/models"
)

// AssessmentResponse is the HTTP body of a finished review.
type AssessmentResponse struct {
	ID                 uuid.UUID            `json:"id"`
	FileNumber         string               `json:"file_number"`
	FinalScore         int                  `json:"final_score"`
	BaselineScore      int                  `json:"baseline_score"`
	BaselineDefaulted  bool                 `json:"baseline_defaulted"`
	OverrideApplied    bool                 `json:"override_applied"`
	Deductions         []DeductionResponse  `json:"deductions"`
	FraudScore         int                  `json:"fraud_score"`
	FraudRisk          string               `json:"fraud_risk"`
	FraudFlags         []string             `json:"fraud_flags"`
	FraudSignals       []SignalResponse     `json:"fraud_signals"`
	FraudIssues        []string             `json:"fraud_issues"`
	MissingEvidence    []string             `json:"missing_evidence"`
	ConfirmedDocuments []string             `json:"confirmed_documents"`
	Fields             map[string]string    `json:"fields"`
	Narrative          string               `json:"narrative"`
	Files              []models.FileSummary `json:"files"`
	PriorMatches       []models.PriorMatch  `json:"prior_matches,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
}

type DeductionResponse struct {
	Rule   string `json:"rule"`
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

type SignalResponse struct {
	Kind        string `json:"kind"`
	Weight      int    `json:"weight"`
	Description string `json:"description"`
}

// ErrorResponse is the body of a failed review. Narrative and Retryable are
// set for collaborator failures only.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	Narrative        string `json:"narrative,omitempty"`
	Retryable        bool   `json:"retryable"`
}

type AssessmentListResponse struct {
	FileNumber  string                `json:"file_number"`
	Assessments []*AssessmentResponse `json:"assessments"`
}

// FromAssessment converts a domain assessment to its HTTP response.
func FromAssessment(a *models.Assessment) *AssessmentResponse {
	resp := &AssessmentResponse{
		ID:                 a.ID,
		FileNumber:         a.FileNumber,
		FinalScore:         a.FinalScore,
		BaselineScore:      a.BaselineScore,
		BaselineDefaulted:  a.BaselineDefaulted,
		OverrideApplied:    a.OverrideApplied,
		Deductions:         make([]DeductionResponse, 0, len(a.Deductions)),
		FraudScore:         a.FraudScore,
		FraudRisk:          string(a.FraudRisk),
		FraudFlags:         []string{},
		FraudSignals:       make([]SignalResponse, 0, len(a.FraudFlags)),
		FraudIssues:        nonNil(a.FraudIssues),
		MissingEvidence:    nonNil(a.MissingEvidence),
		ConfirmedDocuments: nonNil(a.ConfirmedDocuments),
		Fields:             make(map[string]string, len(a.Fields)),
		Narrative:          a.Narrative,
		Files:              a.Files,
		PriorMatches:       a.PriorMatches,
		CreatedAt:          a.CreatedAt,
	}
	for _, d := range a.Deductions {
		resp.Deductions = append(resp.Deductions, DeductionResponse{Rule: d.Rule, Points: d.Points, Reason: d.Reason})
	}
	for _, s := range a.FraudFlags {
		resp.FraudSignals = append(resp.FraudSignals, SignalResponse{Kind: string(s.Kind), Weight: s.Weight, Description: s.Description})
		if s.Weight > 0 {
			resp.FraudFlags = append(resp.FraudFlags, s.Description)
		}
	}
	for _, name := range fieldOrder {
		resp.Fields[name] = a.Fields.Get(name)
	}
	return resp
}

var fieldOrder = []string{
	extract.FieldClaimNumber,
	extract.FieldVIN,
	extract.FieldYear,
	extract.FieldMake,
	extract.FieldModel,
	extract.FieldMileage,
	extract.FieldComplianceScore,
}

func FromAssessments(fileNumber string, list []*models.Assessment) *AssessmentListResponse {
	resp := &AssessmentListResponse{FileNumber: fileNumber, Assessments: make([]*AssessmentResponse, 0, len(list))}
	for _, a := range list {
		resp.Assessments = append(resp.Assessments, FromAssessment(a))
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
