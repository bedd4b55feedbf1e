package e2e

import (
	"github.com/cucumber/godog"

	"claimaudit/e2e/steps/common"
	"claimaudit/e2e/steps/review"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	review.RegisterSteps(ctx, &reviewAdapter{tc})
}

// reviewAdapter converts between the review step package's upload type and
// the one TestContext sends.
type reviewAdapter struct {
	*TestContext
}

func (a *reviewAdapter) PostReview(fileNumber, rules string, files []review.Upload) error {
	uploads := make([]Upload, len(files))
	for i, f := range files {
		uploads[i] = Upload{Name: f.Name, Data: f.Data}
	}
	return a.TestContext.PostReview(fileNumber, rules, uploads)
}
