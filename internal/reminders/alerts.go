package reminders

// alertSet is the ordered, in-memory set of reminders shown as toasts.
type alertSet struct {
	items []Reminder
}

// add appends r, or replaces it in place when already shown.
func (a *alertSet) add(r Reminder) {
	for i := range a.items {
		if a.items[i].ID == r.ID {
			a.items[i] = r.clone()
			return
		}
	}
	a.items = append(a.items, r.clone())
}

func (a *alertSet) remove(id int64) bool {
	for i := range a.items {
		if a.items[i].ID == id {
			a.items = append(a.items[:i:i], a.items[i+1:]...)
			return true
		}
	}
	return false
}

func (a *alertSet) list() []Reminder {
	return cloneReminders(a.items)
}

func (a *alertSet) len() int {
	return len(a.items)
}
