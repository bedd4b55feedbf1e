// Package tool exposes claim package review as an MCP tool.
package tool

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"claimaudit/internal/extract"
	"claimaudit/internal/ingest"
	"claimaudit/internal/review/models"
)

// Reviewer runs one claim package review.
type Reviewer interface {
	Review(ctx context.Context, req models.ReviewRequest) (*models.Assessment, error)
}

// MetadataReviewClaimPackage describes the review_claim_package tool.
var MetadataReviewClaimPackage = &mcp.Tool{
	Name: "review_claim_package",
	Description: "Audit an insurance claim package (photos, estimate and valuation documents) " +
		"against the client's rules. Returns the reconciled compliance score (0-100) with the " +
		"deductions applied, the fraud score and risk label with the signals that fired, the " +
		"evidence still missing, and the vehicle fields read from the review narrative.",
	InputSchema: map[string]any{
		"type":     "object",
		"required": []string{"files", "policy", "file_number"},
		"properties": map[string]any{
			"files": map[string]any{
				"type":        "array",
				"description": "Files of the claim package, in upload order.",
				"minItems":    1,
				"items": map[string]any{
					"type":     "object",
					"required": []string{"name", "content_base64"},
					"properties": map[string]any{
						"name": map[string]any{
							"type":        "string",
							"description": "File name including extension, e.g. estimate.pdf",
						},
						"content_base64": map[string]any{
							"type":        "string",
							"description": "Standard base64 encoding of the file bytes.",
						},
						"content_type": map[string]any{
							"type":        "string",
							"description": "Optional MIME type, used when the extension is unknown.",
						},
					},
				},
			},
			"policy": map[string]any{
				"type":        "string",
				"description": "The client's rules as free text.",
			},
			"file_number": map[string]any{
				"type":        "string",
				"description": "Claim file number; also the reference for claim-number consistency checks.",
			},
		},
	},
}

type InputFile struct {
	Name          string `json:"name"`
	ContentBase64 string `json:"content_base64"`
	ContentType   string `json:"content_type,omitempty"`
}

// InputReviewClaimPackage is the input for the review_claim_package tool.
type InputReviewClaimPackage struct {
	Files      []InputFile `json:"files"`
	Policy     string      `json:"policy"`
	FileNumber string      `json:"file_number"`
}

type Deduction struct {
	Rule   string `json:"rule"`
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// OutputReviewClaimPackage is the output for the review_claim_package tool.
type OutputReviewClaimPackage struct {
	AssessmentID    string            `json:"assessment_id"`
	FileNumber      string            `json:"file_number"`
	FinalScore      int               `json:"final_score"`
	BaselineScore   int               `json:"baseline_score"`
	OverrideApplied bool              `json:"override_applied"`
	Deductions      []Deduction       `json:"deductions"`
	FraudScore      int               `json:"fraud_score"`
	FraudRisk       string            `json:"fraud_risk"`
	FraudFlags      []string          `json:"fraud_flags"`
	FraudIssues     []string          `json:"fraud_issues"`
	MissingEvidence []string          `json:"missing_evidence"`
	Fields          map[string]string `json:"fields"`
	Narrative       string            `json:"narrative"`
}

// ReviewClaimPackage returns the tool handler bound to a reviewer.
func ReviewClaimPackage(r Reviewer) func(context.Context, *mcp.CallToolRequest, InputReviewClaimPackage) (*mcp.CallToolResult, OutputReviewClaimPackage, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input InputReviewClaimPackage) (*mcp.CallToolResult, OutputReviewClaimPackage, error) {
		req, err := input.toReviewRequest()
		if err != nil {
			return nil, OutputReviewClaimPackage{}, err
		}
		a, err := r.Review(ctx, req)
		if err != nil {
			return nil, OutputReviewClaimPackage{}, err
		}
		return nil, fromAssessment(a), nil
	}
}

// NewServer builds an MCP server carrying the review tool.
func NewServer(r Reviewer, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "claimaudit", Version: version}, nil)
	mcp.AddTool(server, MetadataReviewClaimPackage, ReviewClaimPackage(r))
	return server
}

func (in InputReviewClaimPackage) toReviewRequest() (models.ReviewRequest, error) {
	if len(in.Files) == 0 {
		return models.ReviewRequest{}, errors.New("at least one file is required")
	}
	files := make([]ingest.SourceFile, 0, len(in.Files))
	for i, f := range in.Files {
		if f.Name == "" {
			return models.ReviewRequest{}, fmt.Errorf("files[%d]: name is required", i)
		}
		data, err := base64.StdEncoding.DecodeString(f.ContentBase64)
		if err != nil {
			return models.ReviewRequest{}, fmt.Errorf("files[%d] %s: invalid base64: %w", i, f.Name, err)
		}
		files = append(files, ingest.NewSourceFile(f.Name, f.ContentType, data))
	}
	return models.ReviewRequest{
		Package: ingest.DocumentPackage{FileNumber: in.FileNumber, Files: files},
		Policy:  in.Policy,
	}, nil
}

func fromAssessment(a *models.Assessment) OutputReviewClaimPackage {
	out := OutputReviewClaimPackage{
		AssessmentID:    a.ID.String(),
		FileNumber:      a.FileNumber,
		FinalScore:      a.FinalScore,
		BaselineScore:   a.BaselineScore,
		OverrideApplied: a.OverrideApplied,
		Deductions:      []Deduction{},
		FraudScore:      a.FraudScore,
		FraudRisk:       string(a.FraudRisk),
		FraudFlags:      []string{},
		FraudIssues:     append([]string{}, a.FraudIssues...),
		MissingEvidence: append([]string{}, a.MissingEvidence...),
		Fields:          map[string]string{},
		Narrative:       a.Narrative,
	}
	for _, d := range a.Deductions {
		out.Deductions = append(out.Deductions, Deduction{Rule: d.Rule, Points: d.Points, Reason: d.Reason})
	}
	for _, s := range a.FraudFlags {
		if s.Weight > 0 {
			out.FraudFlags = append(out.FraudFlags, s.Description)
		}
	}
	for _, name := range []string{
		extract.FieldClaimNumber, extract.FieldVIN, extract.FieldYear, extract.FieldMake,
		extract.FieldModel, extract.FieldMileage, extract.FieldComplianceScore,
	} {
		out.Fields[name] = a.Fields.Get(name)
	}
	return out
}
