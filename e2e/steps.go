package e2e

import (
	"github.com/cucumber/godog"

	"eldcore/e2e/steps/common"
	"eldcore/e2e/steps/hos"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Generic request and response assertions
	common.RegisterSteps(ctx, tc)

	// Duty-status submission, status and violation steps
	hos.RegisterSteps(ctx, tc)
}
