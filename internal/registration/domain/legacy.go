package domain

// LegacyDossierStatus is the status enumeration of the old
// single-disease dossier model. It is still what the upstream
// registration data feed delivers, so every value must translate to
// exactly one RegistrationStatus.
type LegacyDossierStatus string

const (
	LegacyNeu                      LegacyDossierStatus = "NEU"
	LegacyFreigegeben              LegacyDossierStatus = "FREIGEGEBEN"
	LegacyOdiGewaehlt              LegacyDossierStatus = "ODI_GEWAEHLT"
	LegacyGebucht                  LegacyDossierStatus = "GEBUCHT"
	LegacyImpfung1Kontrolliert     LegacyDossierStatus = "IMPFUNG_1_KONTROLLIERT"
	LegacyImpfung1Durchgefuehrt    LegacyDossierStatus = "IMPFUNG_1_DURCHGEFUEHRT"
	LegacyImpfung2Kontrolliert     LegacyDossierStatus = "IMPFUNG_2_KONTROLLIERT"
	LegacyImpfung2Durchgefuehrt    LegacyDossierStatus = "IMPFUNG_2_DURCHGEFUEHRT"
	LegacyAbgeschlossen            LegacyDossierStatus = "ABGESCHLOSSEN"
	LegacyAutomatischAbgeschlossen LegacyDossierStatus = "AUTOMATISCH_ABGESCHLOSSEN"
	LegacyAbgeschlossenOhneZweite  LegacyDossierStatus = "ABGESCHLOSSEN_OHNE_ZWEITE_IMPFUNG"
	LegacyImmunisiert              LegacyDossierStatus = "IMMUNISIERT"
	LegacyFreigegebenBooster       LegacyDossierStatus = "FREIGEGEBEN_BOOSTER"
	LegacyOdiGewaehltBooster       LegacyDossierStatus = "ODI_GEWAEHLT_BOOSTER"
	LegacyGebuchtBooster           LegacyDossierStatus = "GEBUCHT_BOOSTER"
	LegacyKontrolliertBooster      LegacyDossierStatus = "KONTROLLIERT_BOOSTER"
)

// AllLegacyDossierStatuses lists every legacy value. Tests iterate this
// to prove the translation below is exhaustive.
var AllLegacyDossierStatuses = []LegacyDossierStatus{
	LegacyNeu,
	LegacyFreigegeben,
	LegacyOdiGewaehlt,
	LegacyGebucht,
	LegacyImpfung1Kontrolliert,
	LegacyImpfung1Durchgefuehrt,
	LegacyImpfung2Kontrolliert,
	LegacyImpfung2Durchgefuehrt,
	LegacyAbgeschlossen,
	LegacyAutomatischAbgeschlossen,
	LegacyAbgeschlossenOhneZweite,
	LegacyImmunisiert,
	LegacyFreigegebenBooster,
	LegacyOdiGewaehltBooster,
	LegacyGebuchtBooster,
	LegacyKontrolliertBooster,
}

// Translate maps a legacy dossier status to the current registration
// status. The switch is exhaustive over AllLegacyDossierStatuses; an
// unmapped value is a call-site bug (the upstream enum grew without a
// mapping) and panics so it cannot slip through as a wrong status.
func (s LegacyDossierStatus) Translate() RegistrationStatus {
	switch s {
	case LegacyNeu:
		return StatusRegistered
	case LegacyFreigegeben:
		return StatusReleased
	case LegacyOdiGewaehlt:
		return StatusLocationChosen
	case LegacyGebucht:
		return StatusBooked
	case LegacyImpfung1Kontrolliert:
		return StatusDose1Checked
	case LegacyImpfung1Durchgefuehrt:
		return StatusDose1Given
	case LegacyImpfung2Kontrolliert:
		return StatusDose2Checked
	case LegacyImpfung2Durchgefuehrt:
		return StatusDose2Given
	case LegacyAbgeschlossen:
		return StatusCompleted
	case LegacyAutomatischAbgeschlossen:
		return StatusAutoCompleted
	case LegacyAbgeschlossenOhneZweite:
		return StatusCompletedWithoutDose2
	case LegacyImmunisiert:
		return StatusImmunized
	case LegacyFreigegebenBooster:
		return StatusBoosterReleased
	case LegacyOdiGewaehltBooster:
		return StatusBoosterLocationChosen
	case LegacyGebuchtBooster:
		return StatusBoosterBooked
	case LegacyKontrolliertBooster:
		return StatusBoosterChecked
	}
	panic("unmapped legacy dossier status: " + string(s))
}
