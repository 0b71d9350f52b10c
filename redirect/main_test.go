// redirect/main_test.go
package redirect

import (
	"os"
	"testing"

	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/relay/logging"
)

func TestMain(m *testing.M) {
	logger.UseLogger(zap.NewNop())
	os.Exit(m.Run())
}
