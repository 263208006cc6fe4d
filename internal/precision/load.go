package precision

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coachpo/xvenue/internal/numeric"
	"github.com/coachpo/xvenue/internal/schema"
)

const maxScale = 18

// axisEntry is one axis in a table document. Either scale or step may be
// given; step wins when both are present.
type axisEntry struct {
	Scale *int   `yaml:"scale"`
	Step  string `yaml:"step"`
}

type specEntry struct {
	Quantity axisEntry `yaml:"quantity"`
	Price    axisEntry `yaml:"price"`
}

type document struct {
	Default specEntry            `yaml:"default"`
	Pairs   map[string]specEntry `yaml:"pairs"`
}

// Load decodes a YAML precision table:
//
//	default:
//	  quantity: {scale: 4}
//	  price: {scale: 2}
//	pairs:
//	  XRP/BTC:
//	    quantity: {scale: 0}
//	    price: {step: "0.00000001"}
func Load(r io.Reader) (*Table, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("precision table: empty document")
		}
		return nil, fmt.Errorf("precision table: decode: %w", err)
	}

	var problems []string
	def, err := doc.Default.spec(Spec{})
	if err != nil {
		problems = append(problems, "default: "+err.Error())
	}
	pairs := make(map[schema.CurrencyPair]Spec, len(doc.Pairs))
	for symbol, entry := range doc.Pairs {
		pair, err := schema.ParseCurrencyPair(symbol)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		spec, err := entry.spec(def)
		if err != nil {
			problems = append(problems, symbol+": "+err.Error())
			continue
		}
		pairs[pair] = spec
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("precision table: %s", strings.Join(problems, "; "))
	}
	return NewTable(def, pairs), nil
}

// LoadFile reads a table from path.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("precision table: read %s: %w", path, err)
	}
	return Load(bytes.NewReader(data))
}

// MustLoad is Load over an in-memory document known to be valid.
func MustLoad(data []byte) *Table {
	table, err := Load(bytes.NewReader(data))
	if err != nil {
		panic(err)
	}
	return table
}

func (e specEntry) spec(fallback Spec) (Spec, error) {
	qty, err := e.Quantity.scale(fallback.QuantityScale)
	if err != nil {
		return Spec{}, fmt.Errorf("quantity: %w", err)
	}
	price, err := e.Price.scale(fallback.PriceScale)
	if err != nil {
		return Spec{}, fmt.Errorf("price: %w", err)
	}
	return Spec{QuantityScale: qty, PriceScale: price}, nil
}

func (a axisEntry) scale(fallback int) (int, error) {
	step := strings.TrimSpace(a.Step)
	if step != "" {
		value, ok := numeric.Parse(step)
		if !ok || value.Sign() <= 0 {
			return 0, fmt.Errorf("step %q must be a positive decimal", a.Step)
		}
		return numeric.ScaleFromStep(step), nil
	}
	if a.Scale == nil {
		return fallback, nil
	}
	if *a.Scale < 0 || *a.Scale > maxScale {
		return 0, fmt.Errorf("scale %d out of range [0,%d]", *a.Scale, maxScale)
	}
	return *a.Scale, nil
}
