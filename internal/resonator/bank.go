package resonator

import (
	"sctnet/internal/nn"
)

// NewBank composes one resonator per params into a single network. The
// encoders share the input layer, so one FeedSample drives every resonator.
// offsets[i] is the id of resonator i's encoder.
func NewBank(clk int, amplitude float64, params ...Params) (*nn.Network, []int, error) {
	if len(params) == 0 {
		return nil, nil, ErrInvalidParams
	}
	bank, err := New(clk, amplitude, params[0])
	if err != nil {
		return nil, nil, err
	}
	offsets := []int{0}
	for _, p := range params[1:] {
		net, err := New(clk, amplitude, p)
		if err != nil {
			return nil, nil, err
		}
		offset, err := bank.AddNetwork(net)
		if err != nil {
			return nil, nil, err
		}
		offsets = append(offsets, offset)
	}
	return bank, offsets, nil
}
