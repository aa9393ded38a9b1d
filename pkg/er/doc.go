// Package er is the containment and movement core of an ER diagram editor.
//
// A [Modeler] binds the ER components to a diagram engine:
//
//   - classify resolves the ER kind of an element
//   - containment decides which elements a composite attribute holds
//   - rules gates move and delete gestures so contained elements never act alone
//   - groupmove carries a container's children along when it moves
//   - autolayout lines children up inside their container
//   - attrsync converts between live properties and persisted attributes
//
// Construct it once per diagram; there is no package-level state:
//
//	d := diagram.New()
//	m := er.New(d, er.Options{Logger: logger})
//	res, err := m.ReorganizeChildren("Composite_1")
//
// Failures inside rules and event handlers are logged and degrade to the
// engine's default behavior. Errors are returned only from the explicit
// panel operations.
package er
