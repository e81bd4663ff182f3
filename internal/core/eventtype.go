package core

// EventType is the canonical classification of an access event.
type EventType string

const (
	EventEntry        EventType = "entry"
	EventExit         EventType = "exit"
	EventAccessDenied EventType = "access_denied"
	EventUserAccepted EventType = "user_accepted"
	EventUserRejected EventType = "user_rejected"
	EventAlarm        EventType = "alarm"
	EventSystem       EventType = "system"
	EventDoorForced   EventType = "door_forced"
	EventDoorHeld     EventType = "door_held"
	EventDoorLocked   EventType = "door_locked"
	EventDoorUnlocked EventType = "door_unlocked"
	EventDoorOpened   EventType = "door_opened"
	EventDoorClosed   EventType = "door_closed"
	EventUnknown      EventType = "unknown"
)

// eventTypeLabels maps folded export labels to event types. Keys go through
// foldText, so "Entrée", "ENTREE" and " entree " are the same label.
var eventTypeLabels = func() map[string]EventType {
	labels := map[string]EventType{
		"Entrée":                  EventEntry,
		"Entry":                   EventEntry,
		"Sortie":                  EventExit,
		"Exit":                    EventExit,
		"Accès refusé":            EventAccessDenied,
		"Access denied":           EventAccessDenied,
		"Utilisateur inconnu":     EventAccessDenied,
		"Badge inconnu":           EventAccessDenied,
		"Utilisateur accepté":     EventUserAccepted,
		"Accès autorisé":          EventUserAccepted,
		"Access granted":          EventUserAccepted,
		"Utilisateur rejeté":      EventUserRejected,
		"Alarme":                  EventAlarm,
		"Alarm":                   EventAlarm,
		"Système":                 EventSystem,
		"System":                  EventSystem,
		"Porte forcée":            EventDoorForced,
		"Door forced":             EventDoorForced,
		"Porte maintenue ouverte": EventDoorHeld,
		"Door held open":          EventDoorHeld,
		"Porte verrouillée":       EventDoorLocked,
		"Door locked":             EventDoorLocked,
		"Porte déverrouillée":     EventDoorUnlocked,
		"Door unlocked":           EventDoorUnlocked,
		"Porte ouverte":           EventDoorOpened,
		"Door opened":             EventDoorOpened,
		"Porte fermée":            EventDoorClosed,
		"Door closed":             EventDoorClosed,
	}
	out := make(map[string]EventType, len(labels))
	for label, t := range labels {
		out[foldText(label)] = t
	}
	return out
}()

// MapEventType classifies a free-text event label. Unknown labels map to
// EventUnknown; the original text is kept in raw_event_type.
func MapEventType(label string) EventType {
	if t, ok := eventTypeLabels[foldText(label)]; ok {
		return t
	}
	return EventUnknown
}
