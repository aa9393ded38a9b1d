// Package io reads and writes ER diagrams as JSON documents.
//
// # JSON Format
//
// A document is a single array of elements:
//
//	{
//	  "elements": [
//	    {"id": "Entity_1", "type": "shape", "x": 100, "y": 80, "width": 120, "height": 80,
//	     "attrs": {"er:erType": "Entity", "ns0:erType": "Entity", "er:name": "Customer"}},
//	    {"id": "Flow_1", "type": "connection", "source": "Entity_1", "target": "Rel_1",
//	     "attrs": {"er:erType": "Connection", "er:cardinalitySource": "1"}}
//	  ]
//	}
//
// Only the flat attribute bag is persisted; live properties are rebuilt from
// it on load. Files written under either namespace alias load identically.
//
// # Raw and Synchronized Access
//
// [ReadJSON] and [WriteJSON] move attribute bags in and out unchanged. [Load]
// and [Save] additionally run attribute synchronization through an
// [er.Modeler]: Load hydrates live properties after decoding, Save exports
// them before encoding.
//
//	m, err := io.Load(f, er.Options{Logger: logger})
//	...
//	err = io.Save(m, out)
//
// Output is sorted by element ID so that saving an unchanged diagram
// reproduces the same bytes.
package io
