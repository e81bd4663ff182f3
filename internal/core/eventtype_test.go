package core

import "testing"

func TestMapEventType(t *testing.T) {
	tests := []struct {
		label string
		want  EventType
	}{
		{"Entrée", EventEntry},
		{"ENTREE", EventEntry},
		{" entree ", EventEntry},
		{"Sortie", EventExit},
		{"Exit", EventExit},
		{"Accès refusé", EventAccessDenied},
		{"Badge inconnu", EventAccessDenied},
		{"Utilisateur accepté", EventUserAccepted},
		{"Utilisateur rejeté", EventUserRejected},
		{"Alarme", EventAlarm},
		{"Système", EventSystem},
		{"Porte forcée", EventDoorForced},
		{"Porte maintenue ouverte", EventDoorHeld},
		{"Door unlocked", EventDoorUnlocked},
		{"Porte fermée", EventDoorClosed},
		{"Passage anti-retour", EventUnknown},
		{"", EventUnknown},
	}

	for _, tt := range tests {
		if got := MapEventType(tt.label); got != tt.want {
			t.Errorf("MapEventType(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}
