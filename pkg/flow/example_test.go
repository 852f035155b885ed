package flow_test

import (
	"fmt"

	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/rows"
)

func ExampleBuild() {
	rs := []rows.Row{
		{"from": rows.String("A"), "to": rows.String("B"), "amount": rows.Number(5)},
		{"from": rows.String("A"), "to": rows.String("B"), "amount": rows.Number(3)},
		{"from": rows.String("A"), "to": rows.String("C"), "amount": rows.String("2")},
		{"from": rows.String(""), "to": rows.String("C"), "amount": rows.Number(9)},
	}
	m := flow.Mapping{Origin: "from", Destination: "to", Weight: "amount"}

	g, err := flow.Build(rs, m)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, e := range g.Edges() {
		fmt.Printf("%s -> %s value=%g count=%d\n", e.Source, e.Target, e.Value, e.Count)
	}
	fmt.Println("out(A):", len(g.Index().Out("A")))
	fmt.Println("total:", g.TotalWeight())
	// Output:
	// A -> B value=8 count=2
	// A -> C value=2 count=1
	// out(A): 2
	// total: 10
}

func ExampleHaversine() {
	lima := flow.LatLng{Lat: -12.05, Lng: -77.04}
	paris := flow.LatLng{Lat: 48.86, Lng: 2.35}
	fmt.Printf("%.0f km\n", flow.Haversine(lima, paris))
	// Output:
	// 10255 km
}
