package email

const (
	subjectTourReminder = "Reminder: your trial class is coming up"
)
