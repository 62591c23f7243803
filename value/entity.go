package value

// Entity is implemented by reflection objects that can ride inside a Value
// without value importing package reflect (which itself imports value for
// signatures and arguments). A Value of id Function, Class, Object, Future,
// Exception, or Throwable carries an Entity as its payload; the Value only
// borrows it — destroying the Value never destroys the Entity underneath,
// matching the rule that destroy never follows a borrowed cross-reference.
type Entity interface {
	// EntityID returns the Value id this entity is carried under.
	EntityID() ID
	// String renders the entity for Stringify and debug output.
	String() string
}
