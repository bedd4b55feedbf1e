package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// Upload is a file attached to a review request.
type Upload struct {
	Name string
	Data []byte
}

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	PostReview(fileNumber, rules string, files []Upload) error
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers claim review step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &reviewSteps{tc: tc}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		steps.reset()
		return ctx, nil
	})

	ctx.Step(`^a claim package for file number "([^"]*)"$`, steps.packageForFileNumber)
	ctx.Step(`^the client rules "([^"]*)"$`, steps.clientRules)
	ctx.Step(`^a text document "([^"]*)" containing:$`, steps.textDocument)
	ctx.Step(`^I submit the package for review$`, steps.submit)
	ctx.Step(`^I fetch the assessment by its id$`, steps.fetchByID)
	ctx.Step(`^I list assessments for file number "([^"]*)"$`, steps.listForFileNumber)
	ctx.Step(`^the final score should be between (\d+) and (\d+)$`, steps.finalScoreBetween)
	ctx.Step(`^the fraud risk should be one of "([^"]*)"$`, steps.fraudRiskOneOf)
	ctx.Step(`^missing evidence should include "([^"]*)"$`, steps.missingEvidenceIncludes)
	ctx.Step(`^the response should list at least (\d+) assessments?$`, steps.listAtLeast)
}

type reviewSteps struct {
	tc         TestContext
	fileNumber string
	rules      string
	files      []Upload
	lastID     string
}

func (s *reviewSteps) reset() {
	s.fileNumber = ""
	s.rules = ""
	s.files = nil
	s.lastID = ""
}

func (s *reviewSteps) packageForFileNumber(ctx context.Context, fileNumber string) error {
	s.fileNumber = fileNumber
	return nil
}

func (s *reviewSteps) clientRules(ctx context.Context, rules string) error {
	s.rules = rules
	return nil
}

func (s *reviewSteps) textDocument(ctx context.Context, name string, body *godog.DocString) error {
	s.files = append(s.files, Upload{Name: name, Data: []byte(body.Content)})
	return nil
}

func (s *reviewSteps) submit(ctx context.Context) error {
	if err := s.tc.PostReview(s.fileNumber, s.rules, s.files); err != nil {
		return err
	}
	if id, err := s.tc.GetResponseField("id"); err == nil {
		s.lastID = fmt.Sprint(id)
	}
	return nil
}

func (s *reviewSteps) fetchByID(ctx context.Context) error {
	if s.lastID == "" {
		return fmt.Errorf("no assessment id from a previous review")
	}
	return s.tc.GET("/assessments/" + s.lastID)
}

func (s *reviewSteps) listForFileNumber(ctx context.Context, fileNumber string) error {
	return s.tc.GET("/claims/" + fileNumber + "/assessments")
}

func (s *reviewSteps) finalScoreBetween(ctx context.Context, lo, hi int) error {
	v, err := s.tc.GetResponseField("final_score")
	if err != nil {
		return err
	}
	score, ok := v.(float64)
	if !ok {
		return fmt.Errorf("final_score is not a number: %v", v)
	}
	if int(score) < lo || int(score) > hi {
		return fmt.Errorf("final_score %d outside [%d, %d]", int(score), lo, hi)
	}
	return nil
}

func (s *reviewSteps) fraudRiskOneOf(ctx context.Context, options string) error {
	v, err := s.tc.GetResponseField("fraud_risk")
	if err != nil {
		return err
	}
	got := fmt.Sprint(v)
	for _, opt := range strings.Split(options, ",") {
		if strings.TrimSpace(opt) == got {
			return nil
		}
	}
	return fmt.Errorf("fraud_risk %q not in %q", got, options)
}

func (s *reviewSteps) missingEvidenceIncludes(ctx context.Context, item string) error {
	v, err := s.tc.GetResponseField("missing_evidence")
	if err != nil {
		return err
	}
	list, _ := v.([]any)
	for _, entry := range list {
		if fmt.Sprint(entry) == item {
			return nil
		}
	}
	return fmt.Errorf("missing_evidence %v does not include %q", list, item)
}

func (s *reviewSteps) listAtLeast(ctx context.Context, n int) error {
	v, err := s.tc.GetResponseField("assessments")
	if err != nil {
		return err
	}
	list, _ := v.([]any)
	if len(list) < n {
		return fmt.Errorf("expected at least %d assessments, got %d", n, len(list))
	}
	return nil
}
