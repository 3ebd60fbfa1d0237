package blackjack

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// TENSOR_KIND is the envelope kind of tensor files.
const TENSOR_KIND = "StateTensor"

// ErrShape is returned when decoded values are not exactly (10,10,2).
var ErrShape error = errors.New("tensor shape must be (10,10,2)")

// ErrFormat is returned when a tensor document is neither a bare nested array nor a StateTensor envelope.
var ErrFormat error = errors.New("unrecognized tensor document")

// tensorDoc is the on-disk envelope. Values are indexed [dealer][player][usable-ace].
type tensorDoc struct {
	Kind   string        `yaml:"kind"`
	Values [][][]float64 `yaml:"values"`
}

// Decode reads a tensor from YAML or JSON. Both the envelope form
//
//	kind: StateTensor
//	values: [[[v00_0, v00_1], ...], ...]
//
// and a bare nested array are accepted. The shape is validated; no padding or truncation is done.
func Decode(r io.Reader) (*Tensor, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("decode tensor: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, ErrFormat
	}

	var values [][][]float64
	switch node := root.Content[0]; node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&values); err != nil {
			return nil, fmt.Errorf("decode tensor values: %w", err)
		}
	case yaml.MappingNode:
		doc := tensorDoc{}
		if err := node.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode tensor document: %w", err)
		}
		if doc.Kind != "" && doc.Kind != TENSOR_KIND {
			return nil, fmt.Errorf("%w: kind %q", ErrFormat, doc.Kind)
		}
		values = doc.Values
	default:
		return nil, ErrFormat
	}

	return fromSlices(values)
}

// Load decodes the tensor file at path.
func Load(path string) (*Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Encode writes the tensor as a StateTensor yaml document.
func Encode(w io.Writer, t *Tensor) error {
	doc := tensorDoc{
		Kind:   TENSOR_KIND,
		Values: toSlices(t),
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode tensor: %w", err)
	}
	return enc.Close()
}

func fromSlices(values [][][]float64) (*Tensor, error) {
	if len(values) != NUM_DEALER_CARDS {
		return nil, fmt.Errorf("%w: got %d dealer rows", ErrShape, len(values))
	}
	t := &Tensor{}
	for d, players := range values {
		if len(players) != NUM_PLAYER_SUMS {
			return nil, fmt.Errorf("%w: dealer %d has %d player rows", ErrShape, d, len(players))
		}
		for p, aces := range players {
			if len(aces) != NUM_ACE_FLAGS {
				return nil, fmt.Errorf("%w: cell (%d,%d) has %d ace values", ErrShape, d, p, len(aces))
			}
			copy(t[d][p][:], aces)
		}
	}
	return t, nil
}

func toSlices(t *Tensor) (values [][][]float64) {
	values = make([][][]float64, NUM_DEALER_CARDS)
	for d := range t {
		values[d] = make([][]float64, NUM_PLAYER_SUMS)
		for p := range t[d] {
			values[d][p] = []float64{t[d][p][NO_USABLE_ACE], t[d][p][USABLE_ACE]}
		}
	}
	return
}
