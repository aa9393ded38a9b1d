// Package pkg holds the erkit libraries.
//
// # Layout
//
//   - [diagram]: element model, engine ports and an in-memory engine
//   - [er]: the ER core (classification, containment, movement rules, group
//     movement, auto-layout, attribute sync) behind the Modeler facade
//   - [io]: JSON document format
//   - [render/dot]: DOT generation and Graphviz rendering
//   - [cache], [store]: render cache and document stores
//   - [api]: HTTP property-panel API
//   - [config], [errors], [observability], [buildinfo]: ambient support
//
// # Quick Start
//
//	m, err := io.LoadFile("orders.json", er.Options{Logger: logger})
//	if err != nil {
//	    return err
//	}
//	dec, err := m.Move([]string{"Composite_1"}, diagram.Point{X: 40})
//	...
//	err = io.SaveFile(m, "orders.json")
package pkg
