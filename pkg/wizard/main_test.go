package wizard_test

import (
	"testing"

	"go.uber.org/goleak"
)

// Submissions run on detached contexts; make sure none outlive their test.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
