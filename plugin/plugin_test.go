package plugin

import (
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"

	"github.com/simplecore-inc/stageflow/engine"
	"github.com/simplecore-inc/stageflow/graph"
	"github.com/simplecore-inc/stageflow/logging"
)

type orderData struct {
	Items int    `json:"items"`
	Note  string `json:"note,omitempty"`
}

// checkoutEngine builds cart -> payment on PAY -> confirmed on CONFIRM, with
// payment falling back to cart on CANCEL.
func checkoutEngine(t *testing.T) *engine.Engine[orderData] {
	t.Helper()
	g, err := graph.New("cart", []graph.Stage[orderData]{
		graph.NewStage("cart",
			graph.On[orderData]("PAY", "payment"),
		),
		graph.NewStage("payment",
			graph.On[orderData]("CONFIRM", "confirmed"),
			graph.On[orderData]("CANCEL", "cart"),
		),
		graph.NewStage[orderData]("confirmed"),
	})
	require.NoError(t, err)

	eng, err := engine.New(g, orderData{}, func(o *engine.Options[orderData]) {
		o.Logger = logging.NewSlogAdapter(slogt.New(t))
	})
	require.NoError(t, err)
	return eng
}
