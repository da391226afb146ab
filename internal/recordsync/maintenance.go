package recordsync

import "time"

// MaintenanceWindow is a daily interval of local hours, [StartHour, EndHour),
// during which the site is assumed to be down. A window may wrap past
// midnight.
type MaintenanceWindow struct {
	StartHour int
	EndHour   int
	// Location is the zone the hours are read in, nil means the zone of the
	// time being checked.
	Location *time.Location
}

// DefaultMaintenanceWindow is 04:00 to 07:00 site time.
func DefaultMaintenanceWindow(location *time.Location) MaintenanceWindow {
	return MaintenanceWindow{
		StartHour: 4,
		EndHour:   7,
		Location:  location,
	}
}

// Contains is pure, it only depends on t.
func (w MaintenanceWindow) Contains(t time.Time) bool {
	if w.StartHour == w.EndHour {
		return false
	}
	if w.Location != nil {
		t = t.In(w.Location)
	}
	hour := t.Hour()
	if w.StartHour < w.EndHour {
		return hour >= w.StartHour && hour < w.EndHour
	}
	return hour >= w.StartHour || hour < w.EndHour
}
