package noise

// Toggled is a fixed-size container that is always allocated, paired with an
// on/off bit that signals whether its contents are meaningful. It is used for
// the handshake's s, e, rs and re slots so that no slot requires conditional
// allocation mid-handshake; the presence bit is the only thing that changes.
//
// Grounded in the original Rust implementation's Toggle<T>, which the
// specification's §3 "Toggled slot" and §9 "pre-allocated slots with presence
// bit" design note both describe directly.
type Toggled[T any] struct {
	value T
	on    bool
}

// Enable stores value and marks the slot on.
func (self *Toggled[T]) Enable(value T) {
	self.value = value
	self.on = true
}

// IsOn reports whether the slot currently holds meaningful contents.
func (self *Toggled[T]) IsOn() bool {
	return self.on
}

// Get returns the slot's contents, failing if the slot is off.
func (self *Toggled[T]) Get() (T, error) {
	var zero T
	if !self.on {
		return zero, newFlaggedError(ErrMissingKeyMaterial, "slot is not set")
	}
	return self.value, nil
}

// Clear wipes the slot's value back to its zero value and marks it off. This
// is how the handshake state zeroises key material on drop (§5).
func (self *Toggled[T]) Clear() {
	var zero T
	self.value = zero
	self.on = false
}
