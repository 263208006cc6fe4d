package huobi

import (
	_ "embed"
	"sync"

	"github.com/coachpo/xvenue/internal/precision"
)

//go:embed precision.yaml
var defaultPrecisionYAML []byte

var defaultPrecision = sync.OnceValue(func() *precision.Table {
	return precision.MustLoad(defaultPrecisionYAML)
})

// DefaultPrecision returns the built-in Huobi precision table.
func DefaultPrecision() *precision.Table {
	return defaultPrecision()
}
