// Package diagram defines the element model of an ER diagram and the engine
// ports the ER core consumes, together with an in-memory engine implementing
// them.
//
// # Elements
//
// An [Element] is a shape or a connection. Its semantic ER kind ([Kind]) is
// not a field: it lives in the live property bag under [PropKind] or in the
// persisted attribute bag ([Attrs]) under one of several namespace aliases,
// and is resolved by the classify package. [Element.Parent] is a weak
// reference resolved through the [Registry].
//
// # Engine Ports
//
// The ER core never mutates elements directly. It reads through a [Registry],
// changes geometry and properties through [Modeling], reacts to [EventBus]
// notifications and gates user gestures through rules registered with a
// [RuleProvider]. [Engine] bundles the four.
//
// # Reference Engine
//
// [Diagram] implements every port in memory:
//
//	d := diagram.New()
//	_ = d.AddElement(&diagram.Element{ID: "Entity_1", Bounds: diagram.Bounds{Width: 120, Height: 80}})
//	dec, err := d.Move([]string{"Entity_1"}, diagram.Point{X: 10})
//
// [Diagram.Move] and [Diagram.Delete] are the gesture entry points: they
// consult the registered rules and execute the change as one compound
// command. Commands issued by event handlers while a compound is open join
// it, so [Diagram.Undo] reverts a gesture together with everything it
// triggered.
//
// # Concurrency
//
// A Diagram may be read from several goroutines. Gestures are expected to be
// issued from one goroutine at a time; handlers run synchronously on the
// goroutine that fired the event.
package diagram
