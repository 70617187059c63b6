package log

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event represents a router event captured by a registry, channel or the
// plugin manager. CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ID uniquely identifies the event (UUID).
	ID string `cbor:"2,keyasint,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Channel is the debug form of the channel identifier.
	Channel string `cbor:"4,keyasint,omitempty"`

	// Protocol is the channel protocol name.
	Protocol string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Registry    *RegistryEvent    `cbor:"10,keyasint,omitempty"`
	Dispatch    *DispatchEvent    `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// NewEvent returns an event of the given category stamped with the current
// time and a fresh ID.
func NewEvent(category Category) Event {
	return Event{
		Timestamp: time.Now(),
		ID:        uuid.NewString(),
		Category:  category,
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryRegistry indicates a change of a channel registry.
	CategoryRegistry Category = 0
	// CategoryDispatch indicates a request dispatch decision.
	CategoryDispatch Category = 1
	// CategoryState indicates a channel state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryRegistry:
		return "REGISTRY"
	case CategoryDispatch:
		return "DISPATCH"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory parses a category name, ignoring case.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToUpper(s) {
	case "REGISTRY":
		return CategoryRegistry, true
	case "DISPATCH":
		return CategoryDispatch, true
	case "STATE":
		return CategoryState, true
	case "ERROR":
		return CategoryError, true
	}
	return 0, false
}

// RegistryAction identifies what happened to a registry.
type RegistryAction uint8

const (
	// ActionRegister records a successful registration.
	ActionRegister RegistryAction = 0
	// ActionUnregister records removal of one path registration.
	ActionUnregister RegistryAction = 1
	// ActionUnregisterAll records removal of every registration of a plugin.
	ActionUnregisterAll RegistryAction = 2
	// ActionConflict records a rejected registration or removal.
	ActionConflict RegistryAction = 3
	// ActionReject records a registration rejected for an invalid path.
	ActionReject RegistryAction = 4
)

// String returns the action name.
func (a RegistryAction) String() string {
	switch a {
	case ActionRegister:
		return "REGISTER"
	case ActionUnregister:
		return "UNREGISTER"
	case ActionUnregisterAll:
		return "UNREGISTER_ALL"
	case ActionConflict:
		return "CONFLICT"
	case ActionReject:
		return "REJECT"
	default:
		return "UNKNOWN"
	}
}

// RegistryEvent captures a registration change.
type RegistryEvent struct {
	// Action performed.
	Action RegistryAction `cbor:"1,keyasint"`

	// Mode is the sharing mode of the registry.
	Mode string `cbor:"2,keyasint,omitempty"`

	// Path is the registered path (empty for whole-registry actions).
	Path string `cbor:"3,keyasint,omitempty"`

	// Plugin is the name of the plugin involved.
	Plugin string `cbor:"4,keyasint"`

	// Owner is the plugin already owning Path on conflicts.
	Owner string `cbor:"5,keyasint,omitempty"`

	// Occurrences is the number of registrations removed by ActionUnregisterAll.
	Occurrences int `cbor:"6,keyasint,omitempty"`
}

// DispatchEvent captures the routing of one request.
type DispatchEvent struct {
	// RequestID correlates the event with the request.
	RequestID string `cbor:"1,keyasint"`

	// Method is the protocol method.
	Method string `cbor:"2,keyasint,omitempty"`

	// URI is the target path used for lookup.
	URI string `cbor:"3,keyasint"`

	// Plugin is the name of the plugin that handled the request (empty if none).
	Plugin string `cbor:"4,keyasint,omitempty"`

	// Status is the protocol status returned to the client.
	Status int `cbor:"5,keyasint"`

	// RemoteAddr is the peer address.
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// ProcessingTime is the duration from request receipt to response send.
	// Stored as nanoseconds.
	ProcessingTime *time.Duration `cbor:"7,keyasint,omitempty"`
}

// StateChangeEvent captures channel lifecycle events.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures errors.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
