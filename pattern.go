// Package pattern provides undoable commands and event-sourced entities.
//
// go-pattern pairs the Command pattern with a small event-sourcing core. Every
// state-changing call on an entity is recorded twice: as a command on an
// undo/redo history, and as a versioned event in a log that can be replayed on
// top of the last snapshot.
//
// # Operations
//
// Commands and events refer to operations by name. Build an OperationTable
// once per type and bind it to each instance:
//
//	var counterOps = pattern.NewOperationTable[*Counter]().
//	    Register("incr", pattern.Op0(func(ctx context.Context, c *Counter) error {
//	        c.Sum++
//	        return nil
//	    })).
//	    Register("decr", pattern.Op0(func(ctx context.Context, c *Counter) error {
//	        c.Sum--
//	        return nil
//	    }))
//
// # Command History
//
//	history := pattern.NewCommandHistory(counterOps.Bind(counter))
//	history.Execute(ctx, "incr", nil, pattern.WithUndo("decr", nil)) // Sum == 1
//	history.Undo(ctx)                                                 // Sum == 0
//	history.Redo(ctx)                                                 // Sum == 1
//
// Executing a new command after an Undo drops the undone entries.
//
// # Event Sourcing
//
// Embed EventSourced in a domain type and Push an event from each
// state-changing method:
//
//	type Point struct {
//	    pattern.EventSourced
//	}
//
//	func (p *Point) IncrementX() {
//	    p.Push("incrementX")
//	    x, _ := pattern.Convert[int](p.Get("x"))
//	    p.Set("x", x+1)
//	}
//
// BuildSnapshot folds the working data into a new snapshot and empties the
// log. Replay rebuilds the working data from the snapshot and the log; Push
// is ignored while replaying, so methods may push unconditionally.
//
// # Entities
//
// An EntityType adds a JSON schema with defaults, validation and a command
// history whose commands are sourced as events automatically:
//
//	var personType = pattern.MustEntityType("Person", schema, personOps)
//
//	type Person struct {
//	    pattern.Entity
//	}
//
//	func NewPerson(data pattern.Document) *Person {
//	    p := &Person{}
//	    personType.Init(&p.Entity, p, data)
//	    return p
//	}
//
// # Persistence
//
// A Repository stores one snapshot record per save in a SnapshotStore
// (adapters/memory, adapters/postgres or adapters/sqlite):
//
//	repo := pattern.NewRepository(memory.NewAdapter())
//	repo.Save(ctx, person)
//	repo.Load(ctx, person.Identity(), NewPerson(nil))
package pattern

// Version returns the library version string.
func Version() string {
	return "0.1.0"
}
