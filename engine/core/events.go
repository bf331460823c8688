package core

import "sync"

// EventContext is the payload handed to every listener of a fired event.
type EventContext struct {
	Type SystemEventCode
	Data interface{}
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Resized/resolution changed from the OS.
	/* Context usage:
	 * data.(ResizeEvent)
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x08

	// An object was removed from a scene.
	/* Context usage:
	 * data.(SceneObjectRemoved)
	 */
	EVENT_CODE_SCENE_OBJECT_REMOVED SystemEventCode = 0x10

	// A render graph asset was created for the first time.
	/* Context usage:
	 * data.(GraphAssetInitialized)
	 */
	EVENT_CODE_GRAPH_ASSET_INITIALIZED SystemEventCode = 0x11

	// The settings file was reloaded and applied.
	/* Context usage:
	 * data is the reloaded settings value
	 */
	EVENT_CODE_SETTINGS_CHANGED SystemEventCode = 0x12

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

type ResizeEvent struct {
	Width  uint32
	Height uint32
}

type SceneObjectRemoved struct {
	SceneID string
	Entity  uint64
}

type GraphAssetInitialized struct {
	Target  string
	Tag     string
	Purpose string
}

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listenerInst interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

type eventCodeEntry struct {
	events []*registeredEvent
}

// EventSystem dispatches engine events to registered listeners.
// A nil *EventSystem is valid and drops every event.
type EventSystem struct {
	mu sync.RWMutex
	// Lookup table for event codes.
	registered map[SystemEventCode]*eventCodeEntry
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		registered: make(map[SystemEventCode]*eventCodeEntry),
	}
}

func (es *EventSystem) Shutdown() error {
	if es == nil {
		return ErrEventSystemNotInitialized
	}
	es.mu.Lock()
	defer es.mu.Unlock()
	es.registered = make(map[SystemEventCode]*eventCodeEntry)
	return nil
}

/**
 * Register to listen for when events are sent with the provided code. Events with duplicate
 * listener/callback combos will not be registered again and will cause this to return FALSE.
 * @param code The event code to listen for.
 * @param listener A pointer to a listener instance. Can be nil.
 * @param onEvent The callback function to be invoked when the event code is fired.
 * @returns TRUE if the event is successfully registered; otherwise false.
 */
func (es *EventSystem) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if es == nil || code < 0 || code >= MAX_MESSAGE_CODES || onEvent == nil {
		return false
	}
	es.mu.Lock()
	defer es.mu.Unlock()

	entry, ok := es.registered[code]
	if !ok {
		entry = &eventCodeEntry{}
		es.registered[code] = entry
	}
	for _, e := range entry.events {
		if listener != nil && e.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	entry.events = append(entry.events, &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

/**
 * Unregister from listening for when events are sent with the provided code. If no matching
 * registration is found, this function returns FALSE.
 * @param code The event code to stop listening for.
 * @param listener The listener instance passed to Register.
 * @returns TRUE if the event is successfully unregistered; otherwise false.
 */
func (es *EventSystem) Unregister(code SystemEventCode, listener interface{}) bool {
	if es == nil {
		return false
	}
	es.mu.Lock()
	defer es.mu.Unlock()

	entry, ok := es.registered[code]
	if !ok || len(entry.events) == 0 {
		return false
	}
	for i, e := range entry.events {
		if e.listener == listener {
			entry.events = append(entry.events[:i], entry.events[i+1:]...)
			return true
		}
	}
	// Not found.
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * TRUE, the event is considered handled and is not passed on to any more listeners.
 * @param code The event code to fire.
 * @param sender The sender. Can be nil.
 * @param data The event data.
 * @returns TRUE if handled, otherwise FALSE.
 */
func (es *EventSystem) Fire(code SystemEventCode, sender interface{}, data interface{}) bool {
	if es == nil {
		return false
	}
	es.mu.RLock()
	entry, ok := es.registered[code]
	var events []*registeredEvent
	if ok {
		events = append(events, entry.events...)
	}
	es.mu.RUnlock()

	ctx := EventContext{Type: code, Data: data}
	for _, e := range events {
		if e.callback(code, sender, e.listener, ctx) {
			// Message has been handled, do not send to other listeners.
			return true
		}
	}
	return false
}
