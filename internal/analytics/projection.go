package analytics

import (
	"sort"
	"time"

	"github.com/vcscsvcscs/medadherence/pkg/model"
)

// ProjectedDose is a dose as seen at read time. Logged is false for doses that were
// expected by the schedule but never recorded.
type ProjectedDose struct {
	MedicationID  string           `json:"medication_id"`
	ScheduledTime time.Time        `json:"scheduled_time"`
	Status        model.DoseStatus `json:"status"`
	TakenAt       *time.Time       `json:"taken_at,omitempty"`
	Logged        bool             `json:"logged"`
}

type slotKey struct {
	medicationID string
	unix         int64
}

// ProjectStatus applies the read-time rule: a pending dose whose time has passed is missed
func ProjectStatus(status model.DoseStatus, scheduled, now time.Time) model.DoseStatus {
	if status == model.DoseStatusPending && !scheduled.After(now) {
		return model.DoseStatusMissed
	}
	return status
}

// ProjectDoses merges each medication's expected dose slots in window with the stored
// records. Stored records win over synthetic slots; slots with no record are missed
// once due and pending otherwise. Records for medications not in meds are ignored.
// The input records are never modified.
func ProjectDoses(meds []model.Medication, records []model.DoseRecord, window model.DateRange, now time.Time, loc *time.Location) []ProjectedDose {
	loc = orUTC(loc)

	byMedication := make(map[string]bool, len(meds))
	for _, med := range meds {
		byMedication[med.ID] = true
	}

	logged := make(map[slotKey]model.DoseRecord, len(records))
	for _, rec := range records {
		if !byMedication[rec.MedicationID] || !window.Contains(rec.ScheduledTime) {
			continue
		}
		logged[slotKey{rec.MedicationID, rec.ScheduledTime.Unix()}] = rec
	}

	var doses []ProjectedDose
	used := make(map[slotKey]bool, len(logged))

	for _, med := range meds {
		for _, slot := range expectedSlots(med, window, now, loc) {
			key := slotKey{med.ID, slot.Unix()}
			if rec, ok := logged[key]; ok {
				used[key] = true
				doses = append(doses, fromRecord(rec, now))
				continue
			}
			status := model.DoseStatusMissed
			if slot.After(now) {
				status = model.DoseStatusPending
			}
			doses = append(doses, ProjectedDose{
				MedicationID:  med.ID,
				ScheduledTime: slot,
				Status:        status,
			})
		}
	}

	for key, rec := range logged {
		if !used[key] {
			doses = append(doses, fromRecord(rec, now))
		}
	}

	sort.SliceStable(doses, func(i, j int) bool {
		if doses[i].ScheduledTime.Equal(doses[j].ScheduledTime) {
			return doses[i].MedicationID < doses[j].MedicationID
		}
		return doses[i].ScheduledTime.Before(doses[j].ScheduledTime)
	})
	return doses
}

// FilterByMedication returns the doses belonging to one medication
func FilterByMedication(doses []ProjectedDose, medicationID string) []ProjectedDose {
	var out []ProjectedDose
	for _, dose := range doses {
		if dose.MedicationID == medicationID {
			out = append(out, dose)
		}
	}
	return out
}

func fromRecord(rec model.DoseRecord, now time.Time) ProjectedDose {
	return ProjectedDose{
		MedicationID:  rec.MedicationID,
		ScheduledTime: rec.ScheduledTime,
		Status:        ProjectStatus(rec.Status, rec.ScheduledTime, now),
		TakenAt:       rec.TakenAt,
		Logged:        true,
	}
}

// expectedSlots materializes the medication's schedule for every day of window that
// falls inside the medication's own [start_date, end_date] span
func expectedSlots(med model.Medication, window model.DateRange, now time.Time, loc *time.Location) []time.Time {
	first := CalendarDate(med.StartDate, loc)
	if !window.Start.IsZero() && window.Start.After(first) {
		first = StartOfDay(window.Start, loc)
	}

	end := window.End
	if end.IsZero() {
		end = StartOfDay(now, loc).AddDate(0, 0, 1)
	}
	if med.EndDate != nil {
		medEnd := CalendarDate(*med.EndDate, loc).AddDate(0, 0, 1)
		if medEnd.Before(end) {
			end = medEnd
		}
	}

	medStart := CalendarDate(med.StartDate, loc)
	var slots []time.Time
	y, m, d := first.Date()
	for i := 0; ; i++ {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, loc)
		if !day.Before(end) {
			break
		}
		for _, slot := range med.Schedule.DoseTimes(day, loc) {
			if slot.Before(medStart) || !slot.Before(end) || !window.Contains(slot) {
				continue
			}
			slots = append(slots, slot)
		}
	}
	return slots
}
